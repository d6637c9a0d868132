package main

// General API documentation for swaggo. Regenerate ../../docs with
// `swag init -g cmd/edgellm/docs.go -o docs`.
//
// @title           edgellm API
// @version         1.0
// @description     HTTP API for on-device chat over a local GGUF model.
//
// @contact.name   edgellm maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
