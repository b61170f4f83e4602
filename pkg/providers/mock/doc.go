// Package mock provides a scripted llm.Client for tests: queue responses and
// errors, then assert on the logged requests.
package mock
