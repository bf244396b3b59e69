package markup

// Kind identifies which markup construct a Tag was opened by. The set is
// closed; every switch over Kind in this package is exhaustive.
type Kind int

const (
	// KindDirective is a page directive such as <%@ page ... %>.
	KindDirective Kind = iota
	// KindHTMLComment is an HTML comment opener <!--.
	KindHTMLComment
	// KindExpression is an expression-language fragment ${ ... }.
	KindExpression
	// KindCore is one of the templating core blocks: <% %>, <%= %>, <%! %> or <%-- --%>.
	KindCore
	// KindElement is a tag-library element (<prefix:name ...>) or a plain element (<name ...>).
	KindElement
	// KindSuppress is the in-source marker that disables checking of the next line's tag.
	KindSuppress
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindDirective:
		return "directive"
	case KindHTMLComment:
		return "html-comment"
	case KindExpression:
		return "expression"
	case KindCore:
		return "core"
	case KindElement:
		return "element"
	case KindSuppress:
		return "suppress"
	default:
		return "unknown"
	}
}

// CarriesAttributes reports whether tags of this kind collect name="value" pairs.
func (k Kind) CarriesAttributes() bool {
	switch k {
	case KindDirective, KindElement:
		return true
	case KindHTMLComment, KindExpression, KindCore, KindSuppress:
		return false
	default:
		return false
	}
}

// CoreType distinguishes the four templating core openers.
type CoreType int

const (
	CoreScriptlet CoreType = iota
	CoreComment
	CoreDeclaration
	CoreExpression
)

const (
	openScriptlet   = "<%"
	openComment     = "<%--"
	openDeclaration = "<%!"
	openExpression  = "<%="
)

// coreTypeOf maps an opener spelling to its core type. Anything that is not
// one of the longer spellings is a scriptlet.
func coreTypeOf(opener string) CoreType {
	switch opener {
	case openComment:
		return CoreComment
	case openDeclaration:
		return CoreDeclaration
	case openExpression:
		return CoreExpression
	default:
		return CoreScriptlet
	}
}

// CloseDelimiter returns the literal that terminates a block of this type.
func (c CoreType) CloseDelimiter() string {
	switch c {
	case CoreComment:
		return "--%>"
	case CoreScriptlet, CoreDeclaration, CoreExpression:
		return "%>"
	default:
		return "%>"
	}
}

// String returns the string representation of the core type
func (c CoreType) String() string {
	switch c {
	case CoreComment:
		return "comment"
	case CoreDeclaration:
		return "declaration"
	case CoreExpression:
		return "expression"
	case CoreScriptlet:
		return "scriptlet"
	default:
		return "unknown"
	}
}
