package waveform

// Window fixes the waveform to exactly (targetLen, targetLeads).
//
// Longer signals keep their first targetLen samples; shorter ones are zero-padded at the tail.
// A waveform with fewer leads than targetLeads is rejected with ErrShapeMismatch unless
// fillMissing is set, in which case the absent leads stay zero. Extra leads are dropped.
func Window(w *Waveform, targetLen, targetLeads int, fillMissing bool) (*Waveform, error) {
	if targetLen <= 0 || targetLeads <= 0 {
		return nil, newError("window", "", ErrConfig, "target shape (%d, %d)", targetLen, targetLeads)
	}
	if w.Leads < targetLeads && !fillMissing {
		return nil, newError("window", "", ErrShapeMismatch, "have %d leads, need %d", w.Leads, targetLeads)
	}

	out := New(targetLen, targetLeads, w.FS)
	rows := min(w.Samples, targetLen)
	leads := min(w.Leads, targetLeads)
	for i := 0; i < rows; i++ {
		copy(out.Data[i*targetLeads:i*targetLeads+leads], w.Data[i*w.Leads:i*w.Leads+leads])
	}
	return out, nil
}
