package fulltext

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// promotionThreshold is the posting-list size at which a plain sorted
// slice is promoted to a roaring bitmap: cheap to scan and merge while
// small, cheap to union/intersect at scale once it isn't.
const promotionThreshold = 1024

// posting is one term's (or trigram's) adaptive doc-id list: a sorted
// []uint64 below promotionThreshold entries, a *roaring64.Bitmap above
// it. Exactly one of small/big is populated at any time.
type posting struct {
	small []uint64
	big   *roaring64.Bitmap
}

func newPosting() *posting { return &posting{} }

func (p *posting) add(id uint64) {
	if p.big != nil {
		p.big.Add(id)
		return
	}
	i := sort.Search(len(p.small), func(i int) bool { return p.small[i] >= id })
	if i < len(p.small) && p.small[i] == id {
		return
	}
	if len(p.small) >= promotionThreshold {
		p.promote()
		p.big.Add(id)
		return
	}
	p.small = append(p.small, 0)
	copy(p.small[i+1:], p.small[i:])
	p.small[i] = id
}

func (p *posting) remove(id uint64) {
	if p.big != nil {
		p.big.Remove(id)
		return
	}
	i := sort.Search(len(p.small), func(i int) bool { return p.small[i] >= id })
	if i < len(p.small) && p.small[i] == id {
		p.small = append(p.small[:i], p.small[i+1:]...)
	}
}

func (p *posting) promote() {
	p.big = roaring64.New()
	for _, id := range p.small {
		p.big.Add(id)
	}
	p.small = nil
}

func (p *posting) contains(id uint64) bool {
	if p.big != nil {
		return p.big.Contains(id)
	}
	i := sort.Search(len(p.small), func(i int) bool { return p.small[i] >= id })
	return i < len(p.small) && p.small[i] == id
}

func (p *posting) cardinality() int {
	if p.big != nil {
		return int(p.big.GetCardinality())
	}
	return len(p.small)
}

func (p *posting) toSlice() []uint64 {
	if p.big != nil {
		return p.big.ToArray()
	}
	out := make([]uint64, len(p.small))
	copy(out, p.small)
	return out
}

// bitmap returns a roaring64.Bitmap view of p, building one on the fly
// for a not-yet-promoted posting.
func (p *posting) bitmap() *roaring64.Bitmap {
	if p.big != nil {
		return p.big
	}
	bm := roaring64.New()
	for _, id := range p.small {
		bm.Add(id)
	}
	return bm
}

// intersectPostings returns the sorted doc ids present in every posting.
// If any operand has been promoted, the intersection runs over roaring
// bitmaps (so a large promoted operand never gets flattened back down to
// a slice first); otherwise it's a plain sorted merge.
func intersectPostings(ps ...*posting) []uint64 {
	if len(ps) == 0 {
		return nil
	}
	promoted := false
	for _, p := range ps {
		if p.big != nil {
			promoted = true
			break
		}
	}
	if promoted {
		result := ps[0].bitmap().Clone()
		for _, p := range ps[1:] {
			result.And(p.bitmap())
		}
		return result.ToArray()
	}
	result := ps[0].toSlice()
	for _, p := range ps[1:] {
		result = mergeIntersectSorted(result, p.small)
	}
	return result
}

// mergeIntersectSorted intersects two sorted, deduplicated slices.
func mergeIntersectSorted(a, b []uint64) []uint64 {
	var out []uint64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
