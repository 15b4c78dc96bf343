package testkit

import (
	"github.com/jacksonlee411/branch-crm/pkg/authz"
)

// Authorizer returns the embedded capability policy in enforce mode.
func Authorizer() *authz.Service {
	svc, err := authz.NewService(authz.Config{FlagProvider: authz.NewStaticFlagProvider(authz.ModeEnforce)})
	if err != nil {
		panic(err)
	}
	return svc
}
