package primertool

import "strings"

// maskSNPs replaces the bases at common SNP positions with an N so
// primer3 cannot place a primer 3' end on a polymorphic base. snpStarts
// are genomic (0-based chromStart values from snp150Common); seqStart is
// the genomic position of seq's first base.
func maskSNPs(seq string, seqStart int, snpStarts []int) string {
	if len(snpStarts) == 0 {
		return strings.ToUpper(seq)
	}

	masked := []byte(strings.ToUpper(seq))
	for _, snp := range snpStarts {
		idx := snp - seqStart
		if idx >= 0 && idx < len(masked) {
			masked[idx] = 'N'
		}
	}
	return string(masked)
}
