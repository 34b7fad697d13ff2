//	@title			TradePost API
//	@version		1.0
//	@description	JSON API of the TradePost barter marketplace.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						tp_session
//	@description				Session cookie set by /signin. A Bearer Authorization header with the same token also works.

package main

import (
	"fmt"
	"os"

	"github.com/tradepost/web/internal/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
