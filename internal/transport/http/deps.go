package http

import (
	syncapp "github.com/vanvan1998/todoApp/internal/application/sync"
	"github.com/vanvan1998/todoApp/internal/infrastructure/dynamo"
	jwtinfra "github.com/vanvan1998/todoApp/internal/infrastructure/jwt"
	"github.com/vanvan1998/todoApp/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	VerificationRepo *dynamo.VerificationRepo
	Manager          *syncapp.Manager
	Mailer           smtp.Mailer
	JWTProvider      *jwtinfra.Provider
}
