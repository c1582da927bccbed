// Package utils holds the chi router, swagger routes and small request helpers
// shared by the handlers and middleware.
//
// Local dependencies:
//
//	redis (jobs, history, persisted sessions):
//	  docker run -p 6379:6379 -d redis
//	qdrant (only with vector_backend: qdrant):
//	  docker run -p 6333:6333 -p 6334:6334 -v docqaVectors:/qdrant/storage qdrant/qdrant
//
// Regenerate cmd/api/docs after changing handler annotations:
//
//	swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
package utils
