// cmd/gentoken/main.go — Issues a service token for the HTTP API.
// Usage: JWT_SECRET=... go run cmd/gentoken/main.go -service ops -role operator
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"quotepilot/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	service := flag.String("service", "cli", "service name placed in the token")
	role := flag.String("role", "operator", "role: operator | admin")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if *role != "operator" && *role != "admin" {
		log.Fatalf("unknown role %q", *role)
	}

	claims := middleware.JWTClaims{
		Service: *service,
		Role:    *role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(*ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("sign error: %v", err)
	}
	fmt.Println(token)
}
