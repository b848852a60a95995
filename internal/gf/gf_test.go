package gf

import "testing"

func TestMultiplyIdentities(t *testing.T) {
	for a := 1; a < fieldSize; a++ {
		if got := Multiply(byte(a), 1); got != byte(a) {
			t.Fatalf("Multiply(%d, 1) = %d, want %d", a, got, a)
		}
		if got := Multiply(byte(a), 0); got != 0 {
			t.Fatalf("Multiply(%d, 0) = %d, want 0", a, got)
		}
	}
}

func TestMultiplyCommutative(t *testing.T) {
	for a := 0; a < fieldSize; a += 7 {
		for b := 0; b < fieldSize; b += 11 {
			if Multiply(byte(a), byte(b)) != Multiply(byte(b), byte(a)) {
				t.Fatalf("Multiply(%d,%d) != Multiply(%d,%d)", a, b, b, a)
			}
		}
	}
}

func TestInverse(t *testing.T) {
	for a := 1; a < fieldSize; a++ {
		inv := Inverse(byte(a))
		if got := Multiply(byte(a), inv); got != 1 {
			t.Fatalf("a=%d * inverse(a)=%d = %d, want 1", a, inv, got)
		}
	}
}

func TestGenerateCauchyMatrixIdentityTop(t *testing.T) {
	n, k := 9, 6
	m, err := GenerateCauchyMatrix(n, k)
	if err != nil {
		t.Fatalf("GenerateCauchyMatrix: %v", err)
	}
	for r := 0; r < k; r++ {
		for c := 0; c < k; c++ {
			want := byte(0)
			if r == c {
				want = 1
			}
			if m[r][c] != want {
				t.Fatalf("identity block [%d][%d] = %d, want %d", r, c, m[r][c], want)
			}
		}
	}
	for r := k; r < n; r++ {
		for c := 0; c < k; c++ {
			if m[r][c] == 0 {
				t.Fatalf("parity coefficient [%d][%d] is zero", r, c)
			}
		}
	}
}

func TestGenerateCauchyMatrixRejectsOversizedN(t *testing.T) {
	if _, err := GenerateCauchyMatrix(fieldSize, 6); err == nil {
		t.Fatalf("expected error for n >= field size")
	}
}

func TestEncodeDataZeroInputYieldsZeroParity(t *testing.T) {
	k, m := 6, 3
	n := k + m
	mat, err := GenerateCauchyMatrix(n, k)
	if err != nil {
		t.Fatalf("GenerateCauchyMatrix: %v", err)
	}
	tbl, err := InitTables(k, m, mat)
	if err != nil {
		t.Fatalf("InitTables: %v", err)
	}

	const length = 8
	data := make([][]byte, k)
	dataOff := make([]int, k)
	for i := range data {
		data[i] = make([]byte, length)
	}
	out := make([][]byte, m)
	outOff := make([]int, m)
	for i := range out {
		out[i] = make([]byte, length)
	}

	if err := tbl.EncodeData(data, dataOff, out, outOff, length); err != nil {
		t.Fatalf("EncodeData: %v", err)
	}
	for p, shard := range out {
		for b, v := range shard {
			if v != 0 {
				t.Fatalf("parity[%d][%d] = %d, want 0", p, b, v)
			}
		}
	}
}

func TestEncodeDataSingleBitFlip(t *testing.T) {
	k, m := 6, 3
	n := k + m
	mat, err := GenerateCauchyMatrix(n, k)
	if err != nil {
		t.Fatalf("GenerateCauchyMatrix: %v", err)
	}
	tbl, err := InitTables(k, m, mat)
	if err != nil {
		t.Fatalf("InitTables: %v", err)
	}

	const length = 8
	data := make([][]byte, k)
	dataOff := make([]int, k)
	for i := range data {
		data[i] = make([]byte, length)
	}
	data[0][0] = 1

	out := make([][]byte, m)
	outOff := make([]int, m)
	for i := range out {
		out[i] = make([]byte, length)
	}
	if err := tbl.EncodeData(data, dataOff, out, outOff, length); err != nil {
		t.Fatalf("EncodeData: %v", err)
	}

	for p := range out {
		want := mat[k+p][0]
		if out[p][0] != want {
			t.Fatalf("parity[%d][0] = %d, want matrix coefficient %d", p, out[p][0], want)
		}
		for b := 1; b < length; b++ {
			if out[p][b] != 0 {
				t.Fatalf("parity[%d][%d] = %d, want 0", p, b, out[p][b])
			}
		}
	}
}

func TestInvertRoundTrip(t *testing.T) {
	n, k := 9, 6
	mat, err := GenerateCauchyMatrix(n, k)
	if err != nil {
		t.Fatalf("GenerateCauchyMatrix: %v", err)
	}
	support := []int{0, 1, 2, 3, 4, 6} // any k rows of an MDS matrix are invertible
	sub := mat.Submatrix(support)
	inv, err := sub.Invert()
	if err != nil {
		t.Fatalf("Invert: %v", err)
	}
	// sub * inv should be the identity.
	for r := 0; r < k; r++ {
		got, err := MultiplyRowBySquare(sub.Row(r), inv)
		if err != nil {
			t.Fatalf("MultiplyRowBySquare: %v", err)
		}
		for c := 0; c < k; c++ {
			want := byte(0)
			if r == c {
				want = 1
			}
			if got[c] != want {
				t.Fatalf("(sub*inv)[%d][%d] = %d, want %d", r, c, got[c], want)
			}
		}
	}
}
