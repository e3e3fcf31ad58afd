package element

// Host returns an element for a custom tag name.
func Host(tag string, args ...any) *Element { return createElement(KindElement, tag, args) }

// Content elements

func Div(args ...any) *Element     { return Host("div", args...) }
func Span(args ...any) *Element    { return Host("span", args...) }
func P(args ...any) *Element       { return Host("p", args...) }
func H1(args ...any) *Element      { return Host("h1", args...) }
func H2(args ...any) *Element      { return Host("h2", args...) }
func Section(args ...any) *Element { return Host("section", args...) }
func Header(args ...any) *Element  { return Host("header", args...) }
func Footer(args ...any) *Element  { return Host("footer", args...) }
func Ul(args ...any) *Element      { return Host("ul", args...) }
func Ol(args ...any) *Element      { return Host("ol", args...) }
func Li(args ...any) *Element      { return Host("li", args...) }
func Strong(args ...any) *Element  { return Host("strong", args...) }
func Em(args ...any) *Element      { return Host("em", args...) }

// Form elements

func Button(args ...any) *Element { return Host("button", args...) }
func Input(args ...any) *Element  { return Host("input", args...) }
func Label(args ...any) *Element  { return Host("label", args...) }

// Table elements

func Table(args ...any) *Element { return Host("table", args...) }
func Tr(args ...any) *Element    { return Host("tr", args...) }
func Td(args ...any) *Element    { return Host("td", args...) }
