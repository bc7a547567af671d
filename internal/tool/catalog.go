package tool

import (
	"log/slog"
)

// CatalogConfig carries the settings needed to assemble the tool catalog.
type CatalogConfig struct {
	Exec     ShellConfig
	Web      WebConfig
	PlanPath string
}

// BuildCatalog assembles and seals the server's tool catalog. The
// registration order here is the order tools appear in listings.
func BuildCatalog(cfg CatalogConfig, logger *slog.Logger) *Registry {
	plan := NewPlanStore(cfg.PlanPath)

	reg := NewRegistry(logger)
	reg.Register(NewShellTool(cfg.Exec))
	reg.Register(NewReadFileTool())
	reg.Register(NewWriteFileTool())
	reg.Register(NewAppendFileTool())
	reg.Register(NewWebSearchTool(cfg.Web))
	reg.Register(NewWebFetchTool(cfg.Web))
	reg.Register(NewCreatePlanTool(plan))
	reg.Register(NewAppendPlanTool(plan))
	reg.Register(NewReadPlanTool(plan))
	reg.Register(NewListDirTool())
	reg.Register(NewFileInfoTool())
	reg.Register(NewMkdirTool())
	reg.Seal()
	return reg
}
