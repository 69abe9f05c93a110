package hgvs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// error codes that indicate a problem with the user's input rather
// than with the Mutalyzer service
var inputErrorCodes = map[string]bool{
	"EPARSE":    true,
	"ERETR":     true,
	"ENOINTRON": true,
	"ESYNTAXUC": true,
}

// APIError reports a failed Mutalyzer exchange. InvalidInput is set
// when the API rejected the description itself, as opposed to the
// service misbehaving.
type APIError struct {
	Msg          string
	Codes        map[string]string
	InvalidInput bool
}

func (e *APIError) Error() string {
	if len(e.Codes) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Codes)
}

// IntronicOffsetError reports an intronic variant whose offset is too
// large to be dropped automatically.
type IntronicOffsetError struct {
	Variant string
	Offset  int
}

func (e *IntronicOffsetError) Error() string {
	return fmt.Sprintf("variant %s is intronic (offset %d), use the genomic position instead", e.Variant, e.Offset)
}

// Normalization is the outcome of running a coding description through
// the Mutalyzer name checker.
type Normalization struct {
	// the coding accession, corrected to the current version when the
	// API reported an outdated one
	CodingAccession string

	// the validated coding description
	Coding *Variant

	// the equivalent genomic (g.) description
	Genomic *Variant
}

// Mutalyzer is a client for the Mutalyzer normalize API
type Mutalyzer struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewMutalyzer returns a Mutalyzer client against the given base URL,
// e.g. "https://mutalyzer.nl/api"
func NewMutalyzer(baseURL string, log *zap.Logger) *Mutalyzer {
	return &Mutalyzer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

type apiMessage struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

type correctedModel struct {
	Reference struct {
		ID string `json:"id"`
	} `json:"reference"`
	Variants []struct {
		Location struct {
			Offset struct {
				Value int `json:"value"`
			} `json:"offset"`
		} `json:"location"`
	} `json:"variants"`
}

type normalizeResponse struct {
	Message        string          `json:"message"`
	Infos          []apiMessage    `json:"infos"`
	CorrectedModel *correctedModel `json:"corrected_model"`

	EquivalentDescriptions *struct {
		G []struct {
			Description string `json:"description"`
		} `json:"g"`
	} `json:"equivalent_descriptions"`

	ChromosomalDescriptions []struct {
		G string `json:"g"`
	} `json:"chromosomal_descriptions"`

	// present on rejected descriptions
	Custom *struct {
		Infos          []apiMessage    `json:"infos"`
		Errors         []apiMessage    `json:"errors"`
		CorrectedModel *correctedModel `json:"corrected_model"`
	} `json:"custom"`
}

// Normalize validates a coding description with the name checker and
// resolves its genomic equivalent. Intronic descriptions close to the
// exon border (offset <= 5) are corrected and retried once.
func (m *Mutalyzer) Normalize(ctx context.Context, variant string) (*Normalization, error) {
	return m.normalize(ctx, variant, true)
}

func (m *Mutalyzer) normalize(ctx context.Context, variant string, retryIntronic bool) (*Normalization, error) {
	status, body, err := m.call(ctx, variant)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		if code := firstErrorCode(body); code == "EINTRONIC" && retryIntronic {
			corrected, err := m.correctIntronic(ctx, body, variant)
			if err != nil {
				return nil, err
			}
			m.log.Info("corrected intronic variant", zap.String("variant", variant), zap.String("corrected", corrected))
			return m.normalize(ctx, corrected, false)
		}

		return nil, &APIError{
			Msg:          fmt.Sprintf("mutalyzer rejected variant %q (status %d)", variant, status),
			Codes:        errorCodes(body),
			InvalidInput: inputErrorCodes[firstErrorCode(body)],
		}
	}

	coding, err := Parse(variant)
	if err != nil {
		return nil, err
	}

	// an info usually means the accession version was outdated and the
	// API normalized against the current one
	if len(body.Infos) > 0 && body.CorrectedModel != nil && body.CorrectedModel.Reference.ID != "" {
		m.log.Info("mutalyzer corrected the reference", zap.String("details", body.Infos[0].Details))
		coding.Accession = body.CorrectedModel.Reference.ID
	}

	if !coding.IsCoding() {
		return nil, &ParseError{Input: variant, Msg: "the description is not in a coding (c.) reference"}
	}

	genomic, err := m.genomicDescription(body, variant)
	if err != nil {
		return nil, err
	}

	return &Normalization{
		CodingAccession: coding.Accession,
		Coding:          coding,
		Genomic:         genomic,
	}, nil
}

// genomicDescription picks the g. equivalent out of the response
func (m *Mutalyzer) genomicDescription(body *normalizeResponse, variant string) (*Variant, error) {
	var description string
	switch {
	case body.EquivalentDescriptions != nil && len(body.EquivalentDescriptions.G) > 0:
		description = body.EquivalentDescriptions.G[0].Description
	case len(body.ChromosomalDescriptions) > 0:
		description = body.ChromosomalDescriptions[0].G
	default:
		return nil, &APIError{
			Msg: fmt.Sprintf("could not resolve a genomic description for variant %q from the mutalyzer response", variant),
		}
	}
	return Parse(description)
}

var (
	plusOffsetRe = regexp.MustCompile(`\+[0-9]+`)
	mismatchRe   = regexp.MustCompile(`found ([AGCT]) instead`)
	substRe      = regexp.MustCompile(`([A-Z])>([A-Z])`)
)

// complement pairs for repairing a substitution after dropping an
// intronic offset
var basePartner = map[string]string{"A": "T", "T": "A", "C": "G", "G": "C"}

// correctIntronic drops a small intronic offset (<= 5) from the variant
// so primers can still be designed over the neighboring exon. Dropping
// the offset shifts the position, so the reference base may no longer
// match; in that case the substitution is rewritten around the base the
// API reported.
func (m *Mutalyzer) correctIntronic(ctx context.Context, body *normalizeResponse, variant string) (string, error) {
	if body.Custom == nil || body.Custom.CorrectedModel == nil || len(body.Custom.CorrectedModel.Variants) == 0 {
		return "", &APIError{Msg: fmt.Sprintf("unexpected EINTRONIC response for variant %q", variant)}
	}

	offset := body.Custom.CorrectedModel.Variants[0].Location.Offset.Value
	if offset > 5 {
		return "", &IntronicOffsetError{Variant: variant, Offset: offset}
	}

	corrected := plusOffsetRe.ReplaceAllString(variant, "")

	status, retry, err := m.call(ctx, corrected)
	if err != nil {
		return "", err
	}

	if status != http.StatusOK && firstErrorCode(retry) == "ESEQUENCEMISMATCH" {
		found := mismatchRe.FindStringSubmatch(retry.Custom.Errors[0].Details)
		if found == nil {
			return "", &APIError{Msg: fmt.Sprintf("could not repair sequence mismatch for %q", corrected), Codes: errorCodes(retry)}
		}
		// swap in the reference base; the alternate base is arbitrary
		// here, the complement just avoids a no-op A>A description
		corrected = substRe.ReplaceAllString(corrected, found[1]+">"+basePartner[found[1]])
	}

	return corrected, nil
}

// call performs one normalize request and decodes the body
func (m *Mutalyzer) call(ctx context.Context, variant string) (int, *normalizeResponse, error) {
	endpoint := fmt.Sprintf("%s/normalize/%s?only_variants=false", m.baseURL, url.PathEscape(variant))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", "primertool")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, nil, &APIError{Msg: fmt.Sprintf("mutalyzer request failed: %v", err)}
	}
	defer resp.Body.Close()

	body := &normalizeResponse{}
	if err := json.NewDecoder(resp.Body).Decode(body); err != nil {
		return 0, nil, &APIError{Msg: fmt.Sprintf("failed to decode mutalyzer response (status %d): %v", resp.StatusCode, err)}
	}

	return resp.StatusCode, body, nil
}

func firstErrorCode(body *normalizeResponse) string {
	if body.Custom != nil && len(body.Custom.Errors) > 0 {
		return body.Custom.Errors[0].Code
	}
	return ""
}

func errorCodes(body *normalizeResponse) map[string]string {
	if body.Custom == nil {
		return nil
	}
	codes := make(map[string]string, len(body.Custom.Errors))
	for _, e := range body.Custom.Errors {
		codes[e.Code] = e.Details
	}
	return codes
}
