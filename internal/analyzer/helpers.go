package analyzer

import (
	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/token"
)

// tokenOf extracts a position from any node, tolerating nils from
// synthesized bindings.
func tokenOf(node ast.Node) token.Token {
	if node == nil {
		return token.Token{}
	}
	return node.GetToken()
}
