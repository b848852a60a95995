package gf

import "github.com/pkg/errors"

// Submatrix extracts the rows at the given indices from m, preserving
// column order. Used to pick the square submatrix formed by a chosen
// set of surviving stripe positions.
func (m Matrix) Submatrix(rows []int) Matrix {
	out := make(Matrix, len(rows))
	for i, r := range rows {
		row := make([]byte, len(m[r]))
		copy(row, m[r])
		out[i] = row
	}
	return out
}

// Row returns a copy of row r.
func (m Matrix) Row(r int) []byte {
	row := make([]byte, len(m[r]))
	copy(row, m[r])
	return row
}

// Invert computes the inverse of a square GF(2^8) matrix via
// Gauss-Jordan elimination with partial pivoting, the standard
// approach used by the teacher package's own inversionTree (built
// lazily per missing-row combination in klauspost/reedsolomon).
func (m Matrix) Invert() (Matrix, error) {
	n := len(m)
	for _, row := range m {
		if len(row) != n {
			return nil, errors.New("gf: Invert requires a square matrix")
		}
	}

	work := newMatrix(n, 2*n)
	for r := 0; r < n; r++ {
		copy(work[r], m[r])
		work[r][n+r] = 1
	}

	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if work[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, errors.New("gf: matrix is singular")
		}
		work[col], work[pivot] = work[pivot], work[col]

		inv := Inverse(work[col][col])
		for c := 0; c < 2*n; c++ {
			work[col][c] = Multiply(work[col][c], inv)
		}

		for r := 0; r < n; r++ {
			if r == col || work[r][col] == 0 {
				continue
			}
			factor := work[r][col]
			for c := 0; c < 2*n; c++ {
				work[r][c] ^= Multiply(factor, work[col][c])
			}
		}
	}

	out := newMatrix(n, n)
	for r := 0; r < n; r++ {
		copy(out[r], work[r][n:])
	}
	return out, nil
}

// MultiplyRowBySquare computes row · m (a 1xn row vector times an nxn
// matrix), returning the resulting 1xn row vector. Used to project the
// generator matrix's row for the erased index through the inverse of a
// chosen support set's submatrix, deriving the recovery coefficients.
func MultiplyRowBySquare(row []byte, m Matrix) ([]byte, error) {
	n := len(m)
	if len(row) != n {
		return nil, errors.Errorf("gf: row has %d entries, matrix has %d rows", len(row), n)
	}
	out := make([]byte, n)
	for c := 0; c < n; c++ {
		var acc byte
		for r := 0; r < n; r++ {
			acc ^= Multiply(row[r], m[r][c])
		}
		out[c] = acc
	}
	return out, nil
}
