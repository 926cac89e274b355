// Package symbols implements the C7 Symbol Extractor: given a tree-sitter
// node and the LangRule that produced it, derive a types.Symbol carrying a
// signature, parameter list, return type, outgoing call names, doc comment,
// and DDD naming-convention flags.
//
// The extraction strategy generalizes the Go-only go/ast walk (FuncDecl.Name,
// exprToString over ast.Expr, CommentGroup.Text) to the generic tree-sitter
// Node contract: named field lookups first (ChildByFieldName("name"),
// ("parameters"), ("result")), falling back to a keyword-skipping scan of
// named children and finally a regex over the node's raw text when a
// grammar exposes no useful field name for a construct. This lets the same
// extraction code run over every language internal/langs registers a
// grammar for, instead of one extractor per language.
package symbols
