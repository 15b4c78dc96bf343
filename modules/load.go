package modules

import (
	"github.com/jacksonlee411/branch-crm/modules/access"
	"github.com/jacksonlee411/branch-crm/modules/crm"
	"github.com/jacksonlee411/branch-crm/modules/logging"
	"github.com/jacksonlee411/branch-crm/modules/org"
	"github.com/jacksonlee411/branch-crm/pkg/application"
)

// BuiltInModules are registered in dependency order: the audit sink first,
// then the directory, the access engine and finally the CRM.
func BuiltInModules() []application.Module {
	return []application.Module{
		logging.NewModule(),
		org.NewModule(),
		access.NewModule(),
		crm.NewModule(),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	return application.LoadModules(app, append(BuiltInModules(), externalModules...)...)
}
