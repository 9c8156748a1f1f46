package service

import (
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/deppfellow/attestation-plugin/internal/server"
)

// AuthService configures the Clerk SDK. The admin API is guarded by the
// Clerk session middleware, which reads the key set here.
type AuthService struct {
	server *server.Server
}

func NewAuthService(s *server.Server) *AuthService {
	clerk.SetKey(s.Config.Auth.SecretKey)
	return &AuthService{
		server: s,
	}
}
