package idealista

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/LeosDev13/idealista-scraper/models"
)

// ErrNoEmbeddedData is reported when a detail page carries no utag_data
// script. The page is unusable but the crawl continues.
var ErrNoEmbeddedData = errors.New("idealista: utag_data script not found")

// Detail pages duplicate some attributes between an embedded JSON blob and
// the DOM, and omit others from each source. The two are extracted
// independently so one missing field never invalidates the whole record.
var utagDataRe = regexp.MustCompile(`(?s)var\s*utag_data\s*=\s*(\{.*?\});`)

const (
	titleSelector       = "span.main-info__title-main"
	descriptionSelector = "div.ad-comment"
	addressSelector     = "span.main-info__address-text"
	locationSelector    = "span.main-info__title-minor"

	occupiedMarker = "Ocupada ilegalmente"
)

// details is the typed intermediate every projection lands in before a
// Property is constructed.
type details struct {
	id           string
	price        models.Money
	rooms        int
	bathrooms    int
	squareMeters int

	hasGarage  bool
	hasGarden  bool
	hasPool    bool
	hasTerrace bool

	isNewDevelopment  bool
	needsRenovation   bool
	isInGoodCondition bool

	agencyName string

	title         string
	description   string
	address       string
	locationLabel string
	url           string

	isIllegallyOccupied bool
}

// ExtractProperty turns one detail-page document into a validated Property.
// Extraction is pure: the same document always yields the same result.
func ExtractProperty(doc *goquery.Document, pageURL string) (*models.Property, error) {
	data, err := extractEmbeddedData(doc)
	if err != nil {
		return nil, err
	}

	d := details{}
	projectCharacteristics(data, &d)
	projectCondition(data, &d)
	d.agencyName = data.object("agency").stringField("name")
	d.id = data.object("ad").stringField("id")

	// Ad prices on the source site are EUR-denominated.
	price, err := models.NewMoney(data.object("ad").floatField("price"), "EUR")
	if err != nil {
		return nil, err
	}
	d.price = price

	extractDOMFields(doc, pageURL, &d)
	d.isIllegallyOccupied = detectIllegalOccupation(doc)

	return &models.Property{
		ID:                  d.id,
		Price:               d.price,
		Title:               d.title,
		Description:         d.description,
		Address:             d.address,
		SquareMeters:        d.squareMeters,
		Rooms:               d.rooms,
		Bathrooms:           d.bathrooms,
		HasGarage:           d.hasGarage,
		HasGarden:           d.hasGarden,
		HasPool:             d.hasPool,
		HasTerrace:          d.hasTerrace,
		IsNewDevelopment:    d.isNewDevelopment,
		NeedsRenovation:     d.needsRenovation,
		IsInGoodCondition:   d.isInGoodCondition,
		AgencyName:          d.agencyName,
		Location:            d.locationLabel,
		IsIllegallyOccupied: d.isIllegallyOccupied,
		URL:                 d.url,
	}, nil
}

// extractEmbeddedData locates the utag_data script and decodes its JSON.
// A missing marker and a decode failure are distinct errors.
func extractEmbeddedData(doc *goquery.Document) (jsonObject, error) {
	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("idealista: render document: %w", err)
	}

	match := utagDataRe.FindStringSubmatch(html)
	if match == nil {
		return nil, ErrNoEmbeddedData
	}

	var data jsonObject
	if err := json.Unmarshal([]byte(match[1]), &data); err != nil {
		return nil, fmt.Errorf("idealista: decode utag_data: %w", err)
	}
	return data, nil
}

func projectCharacteristics(data jsonObject, d *details) {
	characteristics := data.object("ad").object("characteristics")
	d.rooms = characteristics.intField("roomNumber")
	d.bathrooms = characteristics.intField("bathNumber")
	d.squareMeters = characteristics.intField("constructedArea")
	d.hasGarage = characteristics.flag("hasParking")
	d.hasGarden = characteristics.flag("hasGarden")
	d.hasPool = characteristics.flag("hasSwimmingPool")
	d.hasTerrace = characteristics.flag("hasTerrace")
}

func projectCondition(data jsonObject, d *details) {
	condition := data.object("ad").object("condition")
	d.isNewDevelopment = condition.flag("isNewDevelopment")
	d.needsRenovation = condition.flag("isNeedsRenovating")
	d.isInGoodCondition = condition.flag("isGoodCondition")
}

// extractDOMFields reads the fields only present in the markup. Every field
// defaults to "" when its node is absent; this never fails.
func extractDOMFields(doc *goquery.Document, pageURL string, d *details) {
	d.title = firstText(doc, titleSelector)
	d.description = firstText(doc, descriptionSelector)
	d.address = firstText(doc, addressSelector)
	d.locationLabel = firstText(doc, locationSelector)
	d.url = pageURL
}

// detectIllegalOccupation reports whether the page carries the literal
// occupation marker anywhere in a span.
func detectIllegalOccupation(doc *goquery.Document) bool {
	found := false
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == occupiedMarker {
			found = true
			return false
		}
		return true
	})
	return found
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// jsonObject wraps the decoded utag_data blob with tolerant accessors. Each
// accessor has a stated default so "missing field" stays a data-quality
// signal rather than an error.
type jsonObject map[string]any

// object returns the nested object at key, or an empty object.
func (o jsonObject) object(key string) jsonObject {
	if nested, ok := o[key].(map[string]any); ok {
		return jsonObject(nested)
	}
	return jsonObject{}
}

// stringField returns the string at key, defaulting to "".
func (o jsonObject) stringField(key string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return ""
}

// intField reads a numeric field, accepting JSON numbers and numeric
// strings, defaulting to 0 when missing, null or malformed.
func (o jsonObject) intField(key string) int {
	return int(o.floatField(key))
}

// floatField reads a numeric field with the same tolerance as intField.
func (o jsonObject) floatField(key string) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// flag reads an upstream boolean, encoded as the literal string "1" for
// true. Any other value, including absence, is false.
func (o jsonObject) flag(key string) bool {
	s, ok := o[key].(string)
	return ok && s == "1"
}
