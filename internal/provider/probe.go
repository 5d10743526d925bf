package provider

// Logger is the logging surface used by this package.
type Logger interface {
	Debug(format string, args ...any)
}

// Probe reports the identity flags of p without issuing any request. A nil
// provider, or one that does not implement Flagger, reports all false.
func Probe(p Provider, log Logger) Capabilities {
	if p == nil {
		if log != nil {
			log.Debug("probe: no wallet provider present")
		}
		return Capabilities{}
	}

	f, ok := p.(Flagger)
	if !ok {
		if log != nil {
			log.Debug("probe: provider %T advertises no identity flags", p)
		}
		return Capabilities{}
	}

	caps := f.Flags()
	if log != nil {
		log.Debug("probe: tokenpocket=%t metamask=%t safepal=%t", caps.TokenPocket, caps.MetaMask, caps.SafePal)
	}
	return caps
}
