package main

// General API documentation for swaggo. Run `make swagger-gen` to regenerate
// internal/apidocs.
//
// @title           formalizer API
// @version         1.0
// @description     Rewrites free text in a formal Spanish register through a text-generation engine.
//
// @contact.name   formalizer maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
