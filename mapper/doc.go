// Package mapper translates structured check data into up/down signals.
//
// A DataMapper owns values of one Go type whose key passes its filter and
// which satisfy its up or down predicate. Mappers are consulted in
// registration order; the first one that matches a key claims it for the
// rest of the registration pass.
//
//	custom, err := mapper.Tokens("foo-bar", "FOO", "BAR")
//	if err != nil {
//	    return err
//	}
//	reg, _ := mapper.NewRegistry(append(mapper.Defaults(), custom)...)
//
//	pass := reg.NewPass()
//	m, ok := pass.Claim("inner2", "READY") // ready-not-ready mapper
package mapper
