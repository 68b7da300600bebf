package lotbook

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Non-transaction line discriminators of the JSONL stream.
const (
	kindPortfolio Kind = "PORTFOLIO"
	kindAsset     Kind = "ASSET"
	kindLink      Kind = "LINK"
)

// EncodeTransaction marshals one transaction as a self-identifying JSON
// line. The concrete struct carries no kind field; the tag is spliced in
// front of its own fields.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	return encodeLine(w, tx.What(), tx)
}

func encodeLine(w io.Writer, kind Kind, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s line: %w", kind, err)
	}
	// b is an object: replace its opening brace with the discriminator
	line := append([]byte(fmt.Sprintf("{%q:%q,", "kind", kind)), b[1:]...)
	if _, err := w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write %s line: %w", kind, err)
	}
	return nil
}

// EncodeLedger persists a ledger to an io.Writer in JSONL format: a
// portfolio header, the declared assets, the transactions in stable date
// order, then the links.
func EncodeLedger(w io.Writer, l *Ledger) error {
	l.stableSort()

	header := struct {
		ID string `json:"id"`
	}{ID: l.portfolio}
	if err := encodeLine(w, kindPortfolio, header); err != nil {
		return err
	}
	for a := range l.Assets() {
		if err := encodeLine(w, kindAsset, a); err != nil {
			return err
		}
	}
	for _, tx := range l.transactions {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	for lk := range l.Links() {
		if err := encodeLine(w, kindLink, lk); err != nil {
			return err
		}
	}
	return nil
}

// DecodeLedger reads a JSONL stream produced by EncodeLedger: each line
// identifies itself by its "kind" field and decodes into the matching
// concrete struct. The result is sorted and ready to query.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	l := NewLedger("")
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue
		}

		var identifier struct {
			Kind Kind `json:"kind"`
		}
		if err := json.Unmarshal(lineBytes, &identifier); err != nil {
			return nil, fmt.Errorf("could not identify line %q: %w", string(lineBytes), err)
		}

		var decoded Transaction
		switch identifier.Kind {
		case kindPortfolio:
			var header struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(lineBytes, &header); err != nil {
				return nil, err
			}
			l.portfolio = header.ID
			continue
		case kindAsset:
			var a Asset
			if err := json.Unmarshal(lineBytes, &a); err != nil {
				return nil, err
			}
			if err := l.DeclareAsset(a); err != nil {
				return nil, err
			}
			continue
		case kindLink:
			var lk TransactionLink
			if err := json.Unmarshal(lineBytes, &lk); err != nil {
				return nil, err
			}
			l.links = append(l.links, lk)
			continue
		case KindBuy:
			var tx Buy
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindSell:
			var tx Sell
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindDividend:
			var tx Dividend
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindCoupon:
			var tx Coupon
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindSplit:
			var tx Split
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindBonus:
			var tx Bonus
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindMerger:
			var tx Merger
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindDemerger:
			var tx Demerger
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindRename:
			var tx Rename
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindContribution:
			var tx Contribution
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindInterestCredit:
			var tx InterestCredit
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindRSUVest:
			var tx RSUVest
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		case KindESPPPurchase:
			var tx ESPPPurchase
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, err
			}
			decoded = tx
		default:
			return nil, fmt.Errorf("unknown line kind %q", identifier.Kind)
		}

		l.transactions = append(l.transactions, decoded)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	l.stableSort()
	return l, nil
}
