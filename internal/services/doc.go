// Package services implements the business logic layer between the HTTP
// handlers and the dataset store. Handlers stay thin; upload validation,
// profiling orchestration, export format selection and event publication all
// live here.
//
// Services follow the usual pattern: dependencies injected through the
// constructor, context propagated into every operation, domain errors
// returned for the transport layer to translate.
package services
