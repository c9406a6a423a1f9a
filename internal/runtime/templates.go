package runtime

// Templates holds the engine's own message texts: everything it says that is
// not authored inside a flow node. Texts are rendered with the same {var}
// substitution as node labels.
type Templates struct {
	// Retry is sent when an input-capture reply fails validation.
	Retry string
	// Unexpected is sent when a reply matches none of a condition's branches.
	Unexpected string
	// Fallback is sent when a handle call aborts on the step bound.
	Fallback string
}

// DefaultTemplates returns the stock texts.
func DefaultTemplates() Templates {
	return Templates{
		Retry:      "Resposta inválida, por favor tente novamente.",
		Unexpected: "Não entendi sua resposta. Escolha uma das opções apresentadas.",
		Fallback:   "Desculpe, ocorreu um problema. Tente novamente em instantes.",
	}
}

func (t Templates) withDefaults() Templates {
	def := DefaultTemplates()
	if t.Retry == "" {
		t.Retry = def.Retry
	}
	if t.Unexpected == "" {
		t.Unexpected = def.Unexpected
	}
	if t.Fallback == "" {
		t.Fallback = def.Fallback
	}
	return t
}
