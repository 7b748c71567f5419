// Command api serves the Andamios HTTP API.
//
//	@title						Andamios API
//	@version					1.0
//	@description				Account registration, bearer-token authentication and protected user/item resources.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andamios/andamios-api/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "andamios-api: %v\n", err)
		os.Exit(1)
	}
}
