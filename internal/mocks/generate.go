// Package mocks provides gomock implementations of the extraction interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=llm_mock.go github.com/joseph-ayodele/complaints-extractor/internal/llm Generator,FieldExtractor
