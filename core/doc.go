// Package core provides the foundational domain types shared by every other
// package in acp-agents. It defines:
//
//   - The message model (Part, Message) exchanged with agents
//   - The Run lifecycle and its protocol state machine
//   - The ordered Event stream emitted for streaming runs
//   - The structured error taxonomy used across registry, router and server
//   - The Handler capability implemented by in-process agents
//
// The package intentionally keeps implementation concerns (dispatch,
// transport, orchestration, concrete backends) out of scope so that higher
// layers can depend on a small, stable vocabulary without cyclic imports.
package core
