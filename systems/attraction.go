package systems

import (
	"log/slog"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/physarum/config"
)

// AttractionTable is a square coupling matrix between populations.
// Row i holds the weights of every population's trail in population i's
// combined signal.
type AttractionTable [][]float32

// NewAttractionTable samples an n×n table: the diagonal from the self
// (cohesion) distribution, everything else from the other (repulsion) one.
func NewAttractionTable(n int, cfg config.AttractionConfig, rng *rand.Rand) AttractionTable {
	self := distuv.Normal{Mu: cfg.SelfMean, Sigma: cfg.SelfStd, Src: rng}
	other := distuv.Normal{Mu: cfg.OtherMean, Sigma: cfg.OtherStd, Src: rng}

	table := make(AttractionTable, n)
	for i := range table {
		table[i] = make([]float32, n)
		for j := range table[i] {
			if i == j {
				table[i][j] = float32(self.Rand())
			} else {
				table[i][j] = float32(other.Rand())
			}
		}
	}
	return table
}

// Size returns the number of populations.
func (t AttractionTable) Size() int { return len(t) }

// At returns the weight of population j's trail on population i.
func (t AttractionTable) At(i, j int) float32 { return t[i][j] }

// LogValue implements slog.LogValuer.
func (t AttractionTable) LogValue() slog.Value {
	rows := make([]slog.Attr, len(t))
	for i, row := range t {
		rows[i] = slog.Any(strconv.Itoa(i), row)
	}
	return slog.GroupValue(rows...)
}
