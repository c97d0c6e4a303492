package utpm

import (
	"bytes"
	"testing"
)

func TestSelectionRoundTrip(t *testing.T) {
	sel, err := NewSelection(0, 3, 23)
	if err != nil {
		t.Fatal(err)
	}
	encoded := EncodeSelection(sel)
	decoded, n, err := DecodeSelection(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(encoded) {
		t.Fatalf("consumed %d bytes, want %d", n, len(encoded))
	}
	if decoded.SizeOfSelect != sel.SizeOfSelect || !bytes.Equal(decoded.Bitmap, sel.Bitmap) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, sel)
	}
	for _, i := range []int{0, 3, 23} {
		if !decoded.IsSelected(i) {
			t.Fatalf("PCR %d should be selected", i)
		}
	}
	if decoded.IsSelected(1) {
		t.Fatal("PCR 1 should not be selected")
	}
}

func TestEmptySelectionEncodesToTwoZeroBytes(t *testing.T) {
	var sel Selection
	encoded := EncodeSelection(sel)
	if !bytes.Equal(encoded, []byte{0x00, 0x00}) {
		t.Fatalf("empty selection encoded as % x, want 00 00", encoded)
	}
}

func TestDecodeSelectionTruncated(t *testing.T) {
	if _, _, err := DecodeSelection([]byte{0x00}); !isErr(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
	if _, _, err := DecodeSelection([]byte{0x00, 0x02, 0xFF}); !isErr(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
}

func TestPCRInfoRoundTripWithDigests(t *testing.T) {
	sel, _ := NewSelection(0, 1)
	var info PCRInfo
	info.Selection = sel
	info.HasDigests = true
	for i := range info.DigestAtRelease {
		info.DigestAtRelease[i] = byte(i)
		info.DigestAtCreation[i] = byte(i + 1)
	}

	encoded := EncodePCRInfo(info)
	decoded, n, err := DecodePCRInfo(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(encoded) {
		t.Fatalf("consumed %d bytes, want %d", n, len(encoded))
	}
	if decoded.DigestAtRelease != info.DigestAtRelease || decoded.DigestAtCreation != info.DigestAtCreation {
		t.Fatal("digest round trip mismatch")
	}
	if !decoded.HasDigests {
		t.Fatal("expected HasDigests true")
	}
}

func TestPCRInfoEmptySelectionOmitsDigests(t *testing.T) {
	info := PCRInfo{}
	encoded := EncodePCRInfo(info)
	if len(encoded) != 2 {
		t.Fatalf("encoded empty PCRInfo is %d bytes, want 2", len(encoded))
	}
	decoded, n, err := DecodePCRInfo(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || decoded.HasDigests {
		t.Fatalf("got %+v / %d, want no digests / 2 bytes consumed", decoded, n)
	}
}

func TestPCRCompositeRoundTrip(t *testing.T) {
	sel, _ := NewSelection(2, 4)
	values := []PCRValue{{1}, {2}}
	encoded := EncodePCRComposite(sel, values)
	decodedSel, decodedValues, n, err := DecodePCRComposite(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(encoded) {
		t.Fatalf("consumed %d bytes, want %d", n, len(encoded))
	}
	if decodedSel.SizeOfSelect != sel.SizeOfSelect {
		t.Fatalf("selection mismatch: %+v vs %+v", decodedSel, sel)
	}
	if len(decodedValues) != 2 || decodedValues[0] != values[0] || decodedValues[1] != values[1] {
		t.Fatalf("values mismatch: %+v", decodedValues)
	}
}

func TestDecodePCRCompositeRejectsBadLength(t *testing.T) {
	sel, _ := NewSelection(0)
	selBytes := EncodeSelection(sel)
	buf := append(append([]byte{}, selBytes...), 0x00, 0x00, 0x00, 0x07) // valueSize=7, not a multiple of HashSize
	if _, _, _, err := DecodePCRComposite(buf); !isErr(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
}

func TestDecodePCRCompositeRejectsTruncatedValues(t *testing.T) {
	sel, _ := NewSelection(0)
	selBytes := EncodeSelection(sel)
	buf := append(append([]byte{}, selBytes...), 0x00, 0x00, 0x00, byte(HashSize))
	// no trailing value bytes appended -> truncated
	if _, _, _, err := DecodePCRComposite(buf); !isErr(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
}
