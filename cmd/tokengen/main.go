// Command tokengen issues API tokens signed with JWT_SECRET, e.g. for the chat
// transport (role service) or for reading analytics (role admin).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tripcraft/pkg/utils"
)

func main() {
	subject := flag.String("sub", "chat-transport", "token subject")
	role := flag.String("role", utils.RoleService, "service or admin")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	if *role != utils.RoleService && *role != utils.RoleAdmin {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	_ = godotenv.Load()
	manager, err := utils.NewJWTManager(os.Getenv("JWT_SECRET"), "tripcraft")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	token, err := manager.CreateToken(*subject, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
