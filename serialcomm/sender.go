package serialcomm

import "io"

func (p *Port) write(code byte) error {
	n, err := p.dev.Write([]byte{code})
	if err == nil && n != 1 {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &IOError{Op: "write", Err: err}
	}
	p.logger.Debugf("sent command %q", code)
	return nil
}
