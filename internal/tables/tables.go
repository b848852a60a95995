// Package tables exposes the four static lookup tables the Trace
// Repair codec is built on: the helper table, the recovery table, the
// dual-basis table, and the bandwidth table (spec §4.B). Population is
// computed once at package init from the codec's Cauchy generator
// matrix and is read-only afterwards, mirroring how
// klauspost/reedsolomon treats its mulTable/invTable as precomputed
// process-wide constants.
//
// Construction: for each erased index j, a support set of k surviving
// positions is chosen and the Cauchy matrix's corresponding submatrix
// is inverted to get the GF(2^8) coefficients λ_i such that
// x_j = Σ λ_i·x_i. Multiplication by a fixed λ is itself an
// F_2-linear map on the 8-bit vector of a GF(2^8) element, so each
// λ_i expands into 8 bit masks (Hij[0..8)) — the helper's repair
// trace becomes exactly the bits of λ_i·x_i, and a helper outside the
// support set contributes a constant zero trace bit that the recovery
// table discards. Because the masks are chosen so trace bit a is
// exactly bit a of λ_i·x_i, the dual-basis table collapses to the
// standard binary weights 2^0..2^7 for every erased index.
package tables

import (
	"github.com/pkg/errors"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/gf"
)

const (
	// N is the total number of stripe positions for the supported profile.
	N = 9
	// K is the number of data units for the supported profile.
	K = 6
	// M is the number of parity units for the supported profile.
	M = N - K
	// T is the sub-symbol (bit) count per byte.
	T = 8
)

// HelperEntry is one row of the helper table: H[i][j].
type HelperEntry struct {
	Bandwidth int
	Coeffs    []byte // length == Bandwidth
}

// RecoveryEntry is one row of the recovery table: R[i][j].
type RecoveryEntry struct {
	Bandwidth int
	Masks     [T]int // the t combining integers r[1..t], 0-indexed here
}

var (
	helper   [N][N]HelperEntry
	recovery [N][N]RecoveryEntry
	dual     [N][T]byte
	bw       [N][N]int

	generator gf.Matrix
)

func init() {
	m, err := gf.GenerateCauchyMatrix(N, K)
	if err != nil {
		panic(errors.Wrap(err, "tables: failed to build generator matrix"))
	}
	generator = m

	for j := 0; j < N; j++ {
		buildRepairColumn(j)
		for s := 0; s < T; s++ {
			dual[j][s] = 1 << uint(s)
		}
	}
	if err := Verify(); err != nil {
		panic(errors.Wrap(errs.ErrCorruptInput, err.Error()))
	}
}

// supportSet returns the first K stripe positions, in increasing
// order, other than j — the helpers whose bytes are combined to
// reconstruct position j.
func supportSet(j int) []int {
	support := make([]int, 0, K)
	for i := 0; i < N && len(support) < K; i++ {
		if i == j {
			continue
		}
		support = append(support, i)
	}
	return support
}

// buildRepairColumn populates helper[*][j], recovery[*][j] and bw[*][j]
// for a single erased index j.
func buildRepairColumn(j int) {
	support := supportSet(j)
	sub := generator.Submatrix(support)
	inv, err := sub.Invert()
	if err != nil {
		panic(errors.Wrapf(err, "tables: support set for erased index %d is singular", j))
	}

	lambda, err := gf.MultiplyRowBySquare(generator.Row(j), inv)
	if err != nil {
		panic(errors.Wrapf(err, "tables: failed to project row %d", j))
	}

	inSupport := make(map[int]byte, K)
	for idx, i := range support {
		inSupport[i] = lambda[idx]
	}

	for i := 0; i < N; i++ {
		if i == j {
			continue
		}
		if coef, ok := inSupport[i]; ok {
			rows := bitMatrixForScalar(coef)
			helper[i][j] = HelperEntry{Bandwidth: T, Coeffs: rows[:]}
			bw[i][j] = T

			var re RecoveryEntry
			re.Bandwidth = T
			for s := 1; s <= T; s++ {
				re.Masks[s-1] = 1 << uint(T-s)
			}
			recovery[i][j] = re
		} else {
			helper[i][j] = HelperEntry{Bandwidth: 1, Coeffs: []byte{0x00}}
			bw[i][j] = 1
			recovery[i][j] = RecoveryEntry{Bandwidth: 1}
		}
	}
}

// bitMatrixForScalar returns the 8 row masks representing
// multiplication-by-lambda as an F_2-linear map on the bit vector of
// x: bit a of (lambda*x) == parity(rows[a] & x).
func bitMatrixForScalar(lambda byte) [T]byte {
	var cols [T]byte // cols[b] = lambda * (1<<b)
	for b := 0; b < T; b++ {
		cols[b] = gf.Multiply(lambda, 1<<uint(b))
	}
	var rows [T]byte
	for a := 0; a < T; a++ {
		var mask byte
		for b := 0; b < T; b++ {
			if (cols[b]>>uint(a))&1 != 0 {
				mask |= 1 << uint(b)
			}
		}
		rows[a] = mask
	}
	return rows
}

// HelperRow returns H[i][j]. Undefined for i == j.
func HelperRow(i, j int) HelperEntry {
	return helper[i][j]
}

// Bandwidth returns bw(i, j) — the number of trace bits per source
// byte that helper i emits when repairing j.
func Bandwidth(i, j int) int {
	return bw[i][j]
}

// RecoveryRow returns R[i][j]. Undefined for i == j.
func RecoveryRow(i, j int) RecoveryEntry {
	return recovery[i][j]
}

// DualBasis returns D[j], the 8-byte dual-basis vector for erased
// index j.
func DualBasis(j int) [T]byte {
	return dual[j]
}

// Verify checks the Open Question flagged in spec §9: the helper
// table and recovery table must agree on bw(i, j) for every pair, or
// the table bundle is corrupt.
func Verify() error {
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if i == j {
				continue
			}
			if helper[i][j].Bandwidth != recovery[i][j].Bandwidth {
				return errors.Errorf("tables: bandwidth mismatch at (%d,%d): helper=%d recovery=%d",
					i, j, helper[i][j].Bandwidth, recovery[i][j].Bandwidth)
			}
			if helper[i][j].Bandwidth != bw[i][j] {
				return errors.Errorf("tables: bandwidth table disagrees with helper table at (%d,%d): bw=%d helper=%d",
					i, j, bw[i][j], helper[i][j].Bandwidth)
			}
		}
	}
	return nil
}
