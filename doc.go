// Package netssh drives interactive SSH sessions against network
// device CLIs: a prompt-recognizing finite state machine, a
// connection pool keyed by device address, and a transactional
// command executor with rollback.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────┐
//	│  pool/        Content-addressed connection cache          │
//	├─────────────────────────────────────────────────────────┤
//	│  session/     Command-level I/O pump + tx execution       │
//	├─────────────────────────────────────────────────────────┤
//	│  fsm/         Prompt/state recognition and transitions     │
//	├─────────────────────────────────────────────────────────┤
//	│  txn/         Block/workflow validation, rollback planning │
//	├─────────────────────────────────────────────────────────┤
//	│  template/    Built-in per-vendor FSM configurations       │
//	├─────────────────────────────────────────────────────────┤
//	│  recording/   Session transcript capture and replay        │
//	├─────────────────────────────────────────────────────────┤
//	│  security/    SSH algorithm and host-key policy bundles    │
//	├─────────────────────────────────────────────────────────┤
//	│  golang.org/x/crypto/ssh   Transport (external)            │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick start
//
//	h, err := template.Cisco()
//	p := pool.New()
//	handle, err := p.Get(pool.Params{
//	    User: "admin", Host: "10.0.0.1", Port: 22,
//	    Password: "secret", Handler: h,
//	    Security: security.DefaultOptions(),
//	})
//	out, err := handle.Execute("show version", "enable", nil, 0)
package netssh
