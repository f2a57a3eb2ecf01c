// Command ragent ingests documents and answers questions grounded in them.
package main

import (
	"os"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(bootstrap); err != nil {
		os.Exit(1)
	}
}
