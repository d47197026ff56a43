package order

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const statusPageQuery = `
query OrderStatusPage($id: ID!) {
  order(id: $id) {
    statusPageUrl
  }
}`

// statusPageOperation is the operation name sent with statusPageQuery.
var statusPageOperation = mustOperationName(statusPageQuery)

// mustOperationName parses a GraphQL document and returns the name of its
// single operation. A broken document is a programming error.
func mustOperationName(query string) string {
	doc, err := parser.ParseQuery(&ast.Source{Name: "order-status-page", Input: query})
	if err != nil {
		panic(fmt.Sprintf("order: invalid GraphQL document: %v", err))
	}
	if len(doc.Operations) != 1 || doc.Operations[0].Name == "" {
		panic("order: GraphQL document must hold exactly one named operation")
	}
	return doc.Operations[0].Name
}

// orderGID converts a numeric order id into a Shopify global id.
func orderGID(id string) string {
	return "gid://shopify/Order/" + id
}
