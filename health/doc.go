// Package health provides the probe model consumed by the gauge registrar.
//
// A Checker is a named unit of health evaluation. Its Name is the stable
// identity used for caching and tagging; Check returns a Result carrying an
// UP/DOWN Status and optional structured Data.
//
// # Groups
//
// A Registry holds statically declared checkers along with the built-in
// kinds (liveness, readiness, startup, wellness) and custom groups they
// belong to:
//
//	reg := health.NewRegistry()
//	_ = reg.Register(dbCheck, health.KindReadiness, "storage")
//	_ = reg.Register(memCheck, health.KindAll)
//
//	members, _ := reg.Group("storage")
//
// # Dynamic registries
//
// Checks that come and go at runtime live in a DynamicRegistry. A RegistrySet
// bundles one per kind; Registries is the in-memory implementation:
//
//	set := health.NewRegistries("plugins")
//	_ = set.Add(pluginCheck, health.KindLiveness)
package health
