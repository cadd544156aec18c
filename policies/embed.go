// Package policies embeds the built-in removal policies.
//
// remix-client.risor drops the server-only route exports of a Remix route
// module. qwik-client.risor drops Qwik City request handlers (onGet,
// onRequest, onStaticGenerate and the like). Both keep any names requested
// explicitly.
package policies

import "embed"

// FS holds the built-in *.risor policies.
//
//go:embed *.risor
var FS embed.FS
