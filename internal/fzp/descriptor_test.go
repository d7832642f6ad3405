package fzp

import (
	"errors"
	"testing"

	"github.com/component-visualizer/backend/internal/models"
)

const ledDescriptor = `<?xml version="1.0" encoding="UTF-8"?>
<module fritzingVersion="0.9.3" moduleId="5mmColorLEDModuleID">
  <title>Red (633nm) LED</title>
  <tags>
    <tag>LED</tag>
    <tag>fritzing core</tag>
  </tags>
  <properties>
    <property name="family">LED</property>
    <property name="color">Red (633nm)</property>
  </properties>
  <views>
    <breadboardView>
      <layers image="breadboard/led_breadboard.svg">
        <layer layerId="breadboard"/>
      </layers>
    </breadboardView>
    <schematicView>
      <layers image="schematic/led_schematic.svg">
        <layer layerId="schematic"/>
      </layers>
    </schematicView>
    <iconView>
      <layers image="icon/led_icon.svg">
        <layer layerId="icon"/>
      </layers>
    </iconView>
  </views>
  <connectors>
    <connector id="connector0" name="anode" type="male">
      <views>
        <breadboardView>
          <p layer="breadboard" svgId="connector0pin" terminalId="connector0terminal"/>
        </breadboardView>
        <schematicView>
          <p layer="schematic" svgId="connector0pin"/>
        </schematicView>
      </views>
    </connector>
    <connector id="connector1" name="cathode" type="male">
      <views>
        <breadboardView>
          <p layer="breadboard" svgId="connector1pin"/>
        </breadboardView>
      </views>
    </connector>
  </connectors>
</module>`

func TestParseDescriptor(t *testing.T) {
	desc, err := Parse([]byte(ledDescriptor))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if desc.FritzingID != "5mmColorLEDModuleID" {
		t.Errorf("FritzingID = %q", desc.FritzingID)
	}
	if desc.Title != "Red (633nm) LED" {
		t.Errorf("Title = %q", desc.Title)
	}
	if desc.Category != "LED" {
		t.Errorf("Category = %q", desc.Category)
	}

	if got := desc.ViewImages[models.ViewBreadboard]; got != "breadboard/led_breadboard.svg" {
		t.Errorf("breadboard image = %q", got)
	}
	if got := desc.ViewImages[models.ViewIcon]; got != "icon/led_icon.svg" {
		t.Errorf("icon image = %q", got)
	}

	if len(desc.Connectors) != 2 {
		t.Fatalf("got %d connectors, want 2", len(desc.Connectors))
	}

	c0 := desc.Connectors[0]
	if c0.ID != "connector0" || c0.Name != "anode" || c0.Type != "male" {
		t.Errorf("connector0 = %+v", c0)
	}
	ref, ok := c0.Refs[models.ViewBreadboard]
	if !ok {
		t.Fatal("connector0 missing breadboard ref")
	}
	if ref.SvgID != "connector0pin" || ref.TerminalID != "connector0terminal" || ref.Layer != "breadboard" {
		t.Errorf("breadboard ref = %+v", ref)
	}
	if _, ok := c0.Refs[models.ViewIcon]; ok {
		t.Error("connector0 should have no icon ref")
	}

	// Declarations without per-view refs still make the list.
	c1 := desc.Connectors[1]
	if _, ok := c1.Refs[models.ViewSchematic]; ok {
		t.Error("connector1 should have no schematic ref")
	}
}

func TestParseDescriptorTitleFallbacks(t *testing.T) {
	withLabel := `<module moduleId="m1"><label>Part A</label><connectors/></module>`
	desc, err := Parse([]byte(withLabel))
	if err != nil {
		t.Fatal(err)
	}
	if desc.Title != "Part A" {
		t.Errorf("Title = %q, want label fallback", desc.Title)
	}

	bare := `<module moduleId="m2"><connectors/></module>`
	desc, err = Parse([]byte(bare))
	if err != nil {
		t.Fatal(err)
	}
	if desc.Title != "m2" {
		t.Errorf("Title = %q, want moduleId fallback", desc.Title)
	}
	if desc.Category != "Uncategorized" {
		t.Errorf("Category = %q", desc.Category)
	}
}

func TestParseDescriptorCategoryFromTag(t *testing.T) {
	data := `<module moduleId="m3">
  <tags><tag>resistor</tag></tags>
  <connectors/>
</module>`
	desc, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if desc.Category != "resistor" {
		t.Errorf("Category = %q, want first tag", desc.Category)
	}
}

func TestParseDescriptorMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not xml", "{json: true}"},
		{"truncated", `<module moduleId="m"><connectors>`},
		{"missing moduleId", `<module><title>x</title><connectors/></module>`},
		{"blank moduleId", `<module moduleId="  "><connectors/></module>`},
		{"missing connectors section", `<module moduleId="m"><title>x</title></module>`},
		{
			"duplicate connector ids",
			`<module moduleId="m"><connectors>
				<connector id="connector0" name="a" type="male"/>
				<connector id="connector0" name="b" type="male"/>
			</connectors></module>`,
		},
		{
			"empty connector id",
			`<module moduleId="m"><connectors><connector id=" " name="a" type="male"/></connectors></module>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedDescriptor) {
				t.Errorf("error %v does not wrap ErrMalformedDescriptor", err)
			}
		})
	}
}

func TestParseDescriptorEmptyConnectorList(t *testing.T) {
	// A present-but-empty connectors section is a zero-pin part, not an
	// error.
	desc, err := Parse([]byte(`<module moduleId="m"><connectors></connectors></module>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(desc.Connectors) != 0 {
		t.Errorf("got %d connectors, want 0", len(desc.Connectors))
	}
}

func TestParseDescriptorLayerOnlyRefIgnored(t *testing.T) {
	data := `<module moduleId="m"><connectors>
		<connector id="connector0" name="a" type="male">
			<views><breadboardView><p layer="breadboard"/></breadboardView></views>
		</connector>
	</connectors></module>`
	desc, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := desc.Connectors[0].Refs[models.ViewBreadboard]; ok {
		t.Error("a <p> with neither svgId nor terminalId must not produce a ref")
	}
}
