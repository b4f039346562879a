package auditraq

// MultiTransport sends every bundle to all transports. Failure of one
// transport doesn't prevent delivery to the others.
type MultiTransport []Transport

// Send implements Transport.
func (m MultiTransport) Send(b Bundle) error {
	var errs Errors
	for _, t := range m {
		if err := t.Send(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.Ret()
}

// Close closes all transports.
func (m MultiTransport) Close() error {
	var errs Errors
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.Ret()
}
