package primertool

// window is a candidate span for one primer pair. Each window that
// survives the design loop contributes one pair to the order table.
type window struct {
	start int
	end   int
}

// splitWindows turns a raw target span into the windows primers are
// designed over.
//
// Targets shorter than minInsert are padded on both sides so the insert
// is long enough to sequence. Targets longer than maxInsert are split
// into near-equal chunks that each fit one insert. Anything in between
// is widened by pad so the primers don't sit directly on the target's
// borders.
func splitWindows(start, end, minInsert, maxInsert, pad int) []window {
	length := end - start

	if length < minInsert {
		grow := (minInsert - length) / 2
		return []window{{start: start - grow, end: end + grow}}
	}

	if length > maxInsert {
		chunks := (length + maxInsert - 1) / maxInsert
		size := (length + chunks - 1) / chunks

		var windows []window
		for at := start; at < end; at += size {
			chunkEnd := at + size
			if chunkEnd > end {
				chunkEnd = end
			}
			windows = append(windows, window{start: at, end: chunkEnd})
		}
		return windows
	}

	return []window{{start: start - pad, end: end + pad}}
}

// target describes one primer3 design attempt: the sequence window to
// fetch and the product size range to request.
//
// flank is the number of bases on each side of the target in which
// primer3 may place a primer. The design loop grows it when no primers
// are found.
type target struct {
	start   int // target span, genomic
	end     int
	flank   int
	seqStart int // sequence window, genomic
	seqEnd   int
	length  int // target span length, bp
	sizeMin int // requested product size range, bp
	sizeMax int
}

// newTarget sizes the sequence window and product range for a design
// attempt with the given flank
func newTarget(start, end, flank int) target {
	length := end - start
	return target{
		start:    start,
		end:      end,
		flank:    flank,
		seqStart: start - flank,
		seqEnd:   end + flank,
		length:   length,
		sizeMin:  length,
		sizeMax:  length + flank/2,
	}
}
