package utpm

// Bank holds the PCRCount PCR registers owned by one Instance. The zero value
// is an all-zero bank, the same value NewBank returns.
type Bank struct {
	pcrs [PCRCount]PCRValue
}

// NewBank returns a Bank with all PCRCount registers set to zero, as required
// at µTPM instance construction time.
func NewBank() *Bank {
	return &Bank{}
}

// Read copies out PCR i.
func (b *Bank) Read(i int) (PCRValue, error) {
	if i < 0 || i >= PCRCount {
		return PCRValue{}, opError("Read", ErrPCROutOfRange)
	}
	return b.pcrs[i], nil
}

// Extend sets pcr[i] = SHA1(pcr[i] || measurement). This is the bank's only
// mutator: there is no reset, mirroring hardware PCR semantics and making
// sealed-blob release policies non-forgeable.
func (b *Bank) Extend(crypto Crypto, i int, measurement PCRValue) error {
	if i < 0 || i >= PCRCount {
		return opError("Extend", ErrPCROutOfRange)
	}
	buf := make([]byte, 2*HashSize)
	copy(buf, b.pcrs[i][:])
	copy(buf[HashSize:], measurement[:])
	b.pcrs[i] = crypto.SHA1(buf)
	return nil
}

// BuildCurrentComposite walks PCR indices 0..PCRCount-1 in ascending order,
// collects the values selected by sel, and returns the encoded
// TPM_PCR_COMPOSITE. Selection order is always PCR-index order, never
// bitmap-scan order, so the encoding is canonical.
func (b *Bank) BuildCurrentComposite(sel Selection) []byte {
	picked := make([]PCRValue, 0, PCRCount)
	for i := 0; i < PCRCount; i++ {
		if sel.IsSelected(i) {
			picked = append(picked, b.pcrs[i])
		}
	}
	return EncodePCRComposite(sel, picked)
}

// CurrentCompositeHash returns SHA1(BuildCurrentComposite(sel)). It is an
// error to call this with an empty selection: there is no composite to hash.
func (b *Bank) CurrentCompositeHash(crypto Crypto, sel Selection) (PCRValue, error) {
	if sel.SizeOfSelect == 0 {
		return PCRValue{}, opError("CurrentCompositeHash", ErrBadParam)
	}
	composite := b.BuildCurrentComposite(sel)
	return crypto.SHA1(composite), nil
}
