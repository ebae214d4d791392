// Package registrar projects health checks onto gauges.
//
// A Registrar registers three families of gauges on a metrics.Sink, each as
// an UP/DOWN pair valued 0 or 1:
//
//	application_status{group=<name>,status=UP|DOWN}
//	application_health_check{check=<check>,status=UP|DOWN}
//	application_health_check{check=<check>-<key>,status=UP|DOWN}
//
// Gauges hold no values. Every scrape re-reads the check result through a
// single-flight cache, so a check runs at most once per refresh window no
// matter how many gauges depend on it. Data keys are bound to the first
// mapper, in registry order, that claims them; unclaimed keys produce no
// gauges.
//
// Dynamic registries are scanned into one entry per registry named after it,
// whose data maps check names to their status. With the default mappers
// this yields check=<registry>-<check> gauges.
package registrar
