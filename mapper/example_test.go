package mapper_test

import (
	"fmt"

	"github.com/jonwraymond/healthmetrics/mapper"
)

func ExampleRegistry_NewPass() {
	inverted := mapper.MustNew(mapper.Config[bool]{
		Name:      "inverted",
		KeyFilter: "degraded",
		Up:        func(b bool) bool { return !b },
		Down:      func(b bool) bool { return b },
	})
	reg, err := mapper.NewRegistry(inverted, mapper.Boolean())
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	data := map[string]any{"degraded": false, "reachable": true, "note": "n/a"}
	pass := reg.NewPass()
	for _, key := range []string{"degraded", "note", "reachable"} {
		if m, ok := pass.Claim(key, data[key]); ok {
			fmt.Printf("%s -> %s up=%t\n", key, m.Name(), m.Up(data[key]))
		}
	}

	// A claimed key is not offered again in the same pass.
	_, again := pass.Claim("reachable", true)
	fmt.Println("reachable claimed twice:", again)
	fmt.Println("note unmapped:", pass.Unmapped("note"))
	// Output:
	// degraded -> inverted up=true
	// reachable -> boolean up=true
	// reachable claimed twice: false
	// note unmapped: true
}

func ExampleTokens() {
	m, err := mapper.Tokens("online-offline", "ONLINE", "OFFLINE")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(m.Up("online"), m.Down("OFFLINE"), m.Mappable("maintenance"))
	// Output:
	// true true false
}
