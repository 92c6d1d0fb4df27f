// Package animaltag projects a series of animal-tag transmitted
// observations onto the flattened sequence template 3-15-023 ("Animal
// Tagged data"), producing the value-bound field sequence the message
// package bit-packs into section 4.
//
// Binding is driven by descriptor identity rather than by absolute
// position in the flattened template: each block (platform, trajectory
// point, profile description, profile sample) is located by its FXY and
// replication-group tags (see package template), then bound field-by-field
// by matching each element's own FXY. This is more resilient to template
// layout changes than slicing the expansion by fixed offsets would be.
package animaltag

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/axiom-data-science/bufrgo/errs"
	"github.com/axiom-data-science/bufrgo/format"
	"github.com/axiom-data-science/bufrgo/fxy"
	"github.com/axiom-data-science/bufrgo/gis"
	"github.com/axiom-data-science/bufrgo/tables"
	"github.com/axiom-data-science/bufrgo/template"
)

// TopSequence is the sequence template this package projects onto, and the
// value callers pass to message.Encode as the sole section 3 descriptor.
var TopSequence = fxy.MustParse("315023")

var (
	seqWIGOS         = fxy.MustParse("301150")
	seqTop           = TopSequence
	seqProfileSample = fxy.MustParse("315105")

	fxySeries          = fxy.MustParse("001125")
	fxyIssuer          = fxy.MustParse("001126")
	fxyIssue           = fxy.MustParse("001127")
	fxyLocalIdentifier = fxy.MustParse("001128")

	fxyWMOBlock            = fxy.MustParse("001001")
	fxyWMOStation          = fxy.MustParse("001002")
	fxySatelliteID         = fxy.MustParse("001007")
	fxyOriginatingCentre   = fxy.MustParse("001033")
	fxySatelliteInstrument = fxy.MustParse("002019")
	fxyTimeSignificance    = fxy.MustParse("008021")

	fxyWMOID       = fxy.MustParse("001087")
	fxyUUID        = fxy.MustParse("001086")
	fxyAnimalType  = fxy.MustParse("002148")
	fxyAttachment  = fxy.MustParse("002149")
	fxyPTT         = fxy.MustParse("001089")
	fxyStationType = fxy.MustParse("002001")

	fxyVerticalSignificance = fxy.MustParse("008013")
	fxyYear                 = fxy.MustParse("004001")
	fxyMonth                = fxy.MustParse("004002")
	fxyDay                  = fxy.MustParse("004003")
	fxyHour                 = fxy.MustParse("004004")
	fxyMinute               = fxy.MustParse("004005")
	fxyLat                  = fxy.MustParse("005001")
	fxyLon                  = fxy.MustParse("006001")
	fxyAzimuth              = fxy.MustParse("005022")
	fxyDriftSpeed           = fxy.MustParse("012190")
	fxyDepth                = fxy.MustParse("007062")
	fxyTemp                 = fxy.MustParse("012101")
	fxyProfileSeqNum        = fxy.MustParse("001090")
	fxyProfileOrientation   = fxy.MustParse("002167")
	fxySalinity             = fxy.MustParse("022064")
	fxyPressure             = fxy.MustParse("010004")

	// lastKnownPositionCode is the 008013 code figure for "last known
	// position prior to satellite contact", bound on every trajectory fix.
	lastKnownPositionCode = 26.0
	// marineAnimalCode and attachedToAnimal are fixed code figures for
	// a tag platform: the codec always describes a marine mammal attached
	// to an animal, never a buoy or other 002148/002149 category.
	marineAnimalCode = 10.0
	attachedToAnimal = 995.0
	argosStationType = 1.0
)

// Observation is one tag-transmitted sample: a position/time fix paired
// with the depth and environmental readings taken there.
type Observation struct {
	Time        time.Time
	Profile     string
	Lat, Lon, Z float64
	Temperature float64
	Salinity    *float64
	Pressure    *float64
}

// Metadata identifies the tagged animal and its transmitter, bound into
// the platform description and WIGOS header blocks.
type Metadata struct {
	WMOID                int
	UUID                 string
	PTT                  string
	WIGOSIssuer          int
	WIGOSLocalIdentifier string
}

// Project expands sequence templates 3-01-150 and 3-15-023 and binds obs
// onto them, returning the complete value-bound field sequence ready for
// message.EncodeSection4. obs need not be pre-sorted; each profile's
// observations are sorted by time internally.
func Project(store *tables.Store, obs []Observation, meta Metadata) ([]template.Field, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no observations to project", errs.ErrBadInput)
	}

	header, err := projectHeader(store, meta)
	if err != nil {
		return nil, err
	}

	body, err := projectBody(store, obs, meta)
	if err != nil {
		return nil, err
	}

	return append(header, body...), nil
}

func projectHeader(store *tables.Store, meta Metadata) ([]template.Field, error) {
	fields, err := template.Expand(store, seqWIGOS)
	if err != nil {
		return nil, err
	}

	for i := range fields {
		switch fields[i].FXY {
		case fxySeries:
			fields[i].Value = 0
		case fxyIssuer:
			fields[i].Value = float64(meta.WIGOSIssuer)
		case fxyIssue:
			fields[i].Value = 0
		case fxyLocalIdentifier:
			fields[i].Text = meta.WIGOSLocalIdentifier
		}
	}

	return fields, nil
}

func projectBody(store *tables.Store, obs []Observation, meta Metadata) ([]template.Field, error) {
	fields, err := template.Expand(store, seqTop)
	if err != nil {
		return nil, err
	}

	bindIdentification(fields, meta)
	bindPlatform(fields, meta)

	trajIdx := template.FindReplication(fields, seqTop, 0)
	if trajIdx < 0 {
		return nil, fmt.Errorf("%w: top-level template missing trajectory replication", errs.ErrBadDescriptor)
	}
	trajGroup := template.Group(fields, trajIdx)
	if len(trajGroup) < 2 {
		return nil, fmt.Errorf("%w: trajectory replication body incomplete", errs.ErrBadDescriptor)
	}
	trajCountIdx, trajBodyIdx := trajGroup[0], trajGroup[1:]

	profileIdx := template.FindReplication(fields, seqTop, trajIdx+1)
	if profileIdx < 0 {
		return nil, fmt.Errorf("%w: top-level template missing profile replication", errs.ErrBadDescriptor)
	}
	profileGroup := template.Group(fields, profileIdx)
	if len(profileGroup) < 2 {
		return nil, fmt.Errorf("%w: profile replication body incomplete", errs.ErrBadDescriptor)
	}
	profileCountIdx := profileGroup[0]
	var descIdx []int
	for _, idx := range profileGroup[1:] {
		if fields[idx].Type != format.FieldReplication {
			descIdx = append(descIdx, idx)
		}
	}

	sampleMarkerIdx := template.FindReplication(fields, seqProfileSample, profileIdx)
	if sampleMarkerIdx < 0 {
		return nil, fmt.Errorf("%w: profile template missing sample replication", errs.ErrBadDescriptor)
	}
	sampleGroup := template.Group(fields, sampleMarkerIdx)
	if len(sampleGroup) < 2 {
		return nil, fmt.Errorf("%w: profile sample replication body incomplete", errs.ErrBadDescriptor)
	}
	sampleCountIdx, sampleBodyIdx := sampleGroup[0], sampleGroup[1:]

	trajTemplate := selectFields(fields, trajBodyIdx)
	descTemplate := selectFields(fields, descIdx)
	sampleTemplate := selectFields(fields, sampleBodyIdx)

	trajPoints := buildTrajectory(obs, trajTemplate)
	profiles := groupProfiles(obs)

	out := make([]template.Field, 0, len(fields)+len(trajPoints)*len(trajTemplate)+len(profiles)*(len(descTemplate)+4))
	out = append(out, fields[:trajIdx]...)
	out = append(out, fields[trajIdx])
	trajCount := fields[trajCountIdx]
	trajCount.Value = float64(len(trajPoints))
	out = append(out, trajCount)
	for _, point := range trajPoints {
		out = append(out, point...)
	}

	out = append(out, fields[profileIdx])
	profileCount := fields[profileCountIdx]
	profileCount.Value = float64(len(profiles))
	out = append(out, profileCount)
	for _, p := range profiles {
		out = append(out, bindDescription(descTemplate, p)...)
		out = append(out, fields[sampleMarkerIdx])
		sampleCount := fields[sampleCountIdx]
		sampleCount.Value = float64(len(p.obs))
		out = append(out, sampleCount)
		for _, o := range p.obs {
			out = append(out, bindSample(sampleTemplate, o)...)
		}
	}

	return out, nil
}

func selectFields(fields []template.Field, idx []int) []template.Field {
	out := make([]template.Field, len(idx))
	for i, j := range idx {
		out[i] = fields[j]
	}

	return out
}

func bindIdentification(fields []template.Field, meta Metadata) {
	for i := range fields {
		switch fields[i].FXY {
		case fxyWMOStation:
			fields[i].Value = float64(meta.WMOID)
		case fxyOriginatingCentre:
			fields[i].Value = 0
		case fxyTimeSignificance:
			fields[i].Value = 0
		case fxyWMOBlock, fxySatelliteID, fxySatelliteInstrument:
			// No corresponding observation-table column for an animal tag;
			// left unbound (encoded as the missing-value sentinel).
		}
	}
}

func bindPlatform(fields []template.Field, meta Metadata) {
	for i := range fields {
		switch fields[i].FXY {
		case fxyWMOID:
			fields[i].Value = float64(meta.WMOID)
		case fxyUUID:
			fields[i].Text = meta.UUID
		case fxyAnimalType:
			fields[i].Value = marineAnimalCode
		case fxyAttachment:
			fields[i].Value = attachedToAnimal
		case fxyPTT:
			fields[i].Text = meta.PTT
		case fxyStationType:
			fields[i].Value = argosStationType
		}
	}
}

// profileData is one profile's observations, sorted by time, with the
// sequential index this codec assigns it.
type profileData struct {
	index int
	obs   []Observation
}

// groupProfiles partitions obs by Profile, sorts each group by time, and
// orders the groups themselves by their earliest observation so sequence
// numbers follow chronology regardless of input order.
func groupProfiles(obs []Observation) []profileData {
	byID := map[string][]Observation{}
	var order []string
	for _, o := range obs {
		if _, ok := byID[o.Profile]; !ok {
			order = append(order, o.Profile)
		}
		byID[o.Profile] = append(byID[o.Profile], o)
	}

	for _, id := range order {
		group := byID[id]
		sort.Slice(group, func(a, b int) bool { return group[a].Time.Before(group[b].Time) })
		byID[id] = group
	}

	sort.Slice(order, func(i, j int) bool {
		return byID[order[i]][0].Time.Before(byID[order[j]][0].Time)
	})

	out := make([]profileData, len(order))
	for i, id := range order {
		out[i] = profileData{index: i + 1, obs: byID[id]}
	}

	return out
}

// buildTrajectory derives one trajectory fix per profile-to-profile leg,
// using each profile's first observation as its representative position.
// Legs with non-positive drift speed are dropped, and the final profile
// (which has no successor to form a leg with) never appears.
func buildTrajectory(obs []Observation, tmpl []template.Field) [][]template.Field {
	profiles := groupProfiles(obs)
	if len(profiles) < 2 {
		return nil
	}

	lons := make([]float64, len(profiles))
	lats := make([]float64, len(profiles))
	for i, p := range profiles {
		lons[i], lats[i] = p.obs[0].Lon, p.obs[0].Lat
	}

	dist := gis.HaversineDistance(lons, lats)
	az := gis.Azimuth(lons, lats)

	var out [][]template.Field
	for i := 0; i < len(profiles)-1; i++ {
		first := profiles[i].obs[0]
		next := profiles[i+1].obs[0]
		dt := next.Time.Sub(first.Time).Seconds()

		var drift float64
		if math.Abs(dist[i]) < 1e-4 && math.Abs(dt) < 1e-4 {
			drift = 0
		} else {
			drift = dist[i] / dt
		}
		if drift <= 0 {
			continue
		}

		direction := math.Mod(az[i]+360, 360)
		out = append(out, bindTrajectoryPoint(tmpl, first, direction, drift))
	}

	return out
}

func bindTrajectoryPoint(tmpl []template.Field, o Observation, direction, drift float64) []template.Field {
	out := make([]template.Field, len(tmpl))
	copy(out, tmpl)
	for i := range out {
		switch out[i].FXY {
		case fxyVerticalSignificance:
			out[i].Value = lastKnownPositionCode
		case fxyYear:
			out[i].Value = float64(o.Time.Year())
		case fxyMonth:
			out[i].Value = float64(o.Time.Month())
		case fxyDay:
			out[i].Value = float64(o.Time.Day())
		case fxyHour:
			out[i].Value = float64(o.Time.Hour())
		case fxyMinute:
			out[i].Value = float64(o.Time.Minute())
		case fxyLat:
			out[i].Value = o.Lat
		case fxyLon:
			out[i].Value = o.Lon
		case fxyAzimuth:
			out[i].Value = direction
		case fxyDriftSpeed:
			out[i].Value = drift
		case fxyDepth:
			out[i].Value = math.Max(o.Z, 0)
		case fxyTemp:
			out[i].Value = o.Temperature + 273.15
		default:
			// Reserved qualifier filler fields (031031) carry a neutral
			// zero rather than being left unbound.
			out[i].Value = 0
		}
	}

	return out
}

func bindDescription(tmpl []template.Field, p profileData) []template.Field {
	first := p.obs[0]
	direction := 1.0
	if meanDepth(p.obs) < 0 {
		direction = 0
	}

	out := make([]template.Field, len(tmpl))
	copy(out, tmpl)
	for i := range out {
		switch out[i].FXY {
		case fxyYear:
			out[i].Value = float64(first.Time.Year())
		case fxyMonth:
			out[i].Value = float64(first.Time.Month())
		case fxyDay:
			out[i].Value = float64(first.Time.Day())
		case fxyHour:
			out[i].Value = float64(first.Time.Hour())
		case fxyMinute:
			out[i].Value = float64(first.Time.Minute())
		case fxyLat:
			out[i].Value = first.Lat
		case fxyLon:
			out[i].Value = first.Lon
		case fxyProfileSeqNum:
			out[i].Value = float64(p.index)
		case fxyProfileOrientation:
			out[i].Value = direction
		default:
			out[i].Value = 0
		}
	}

	return out
}

func meanDepth(obs []Observation) float64 {
	sum := 0.0
	for _, o := range obs {
		sum += o.Z
	}

	return sum / float64(len(obs))
}

func bindSample(tmpl []template.Field, o Observation) []template.Field {
	out := make([]template.Field, len(tmpl))
	copy(out, tmpl)
	for i := range out {
		switch out[i].FXY {
		case fxyDepth:
			out[i].Value = math.Max(o.Z, 0)
		case fxyTemp:
			out[i].Value = o.Temperature + 273.15
		case fxySalinity:
			if o.Salinity != nil {
				out[i].Value = *o.Salinity
			}
		case fxyPressure:
			if o.Pressure != nil {
				out[i].Value = *o.Pressure * 10000
			}
		}
	}

	return out
}
