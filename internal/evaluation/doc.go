// Package evaluation provides the HTTP client for the answer evaluation
// service. A full set of question/answer pairs is submitted in one request
// and the service returns per-question feedback in the same order.
package evaluation
