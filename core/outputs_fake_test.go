package core

// fakeOutputDriver records output calls for assertions in tests.
type fakeOutputDriver struct {
	injectorOpen  []uint8
	injectorClose []uint8
	coilBegin     []uint8
	coilEnd       []uint8
}

func (f *fakeOutputDriver) InjectorOpen(channel uint8)  { f.injectorOpen = append(f.injectorOpen, channel) }
func (f *fakeOutputDriver) InjectorClose(channel uint8) { f.injectorClose = append(f.injectorClose, channel) }
func (f *fakeOutputDriver) CoilBeginCharge(channel uint8) {
	f.coilBegin = append(f.coilBegin, channel)
}
func (f *fakeOutputDriver) CoilEndCharge(channel uint8) { f.coilEnd = append(f.coilEnd, channel) }
