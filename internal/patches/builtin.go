package patches

import "github.com/JonMunkholm/dipsw/internal/dipsw"

func init() {
	registerAirBlow()
	registerMaintenanceCount()
}

const airBlowDescription = "PF Air-blow adjustment\n\n" +
	"Specify the setting to '1' so that it enables the air blow adjustment without feeding sheets when a jam occurs due to the paper feed from PF.\n\n" +
	"<When confirming how much the paper is floated and performing the air-blow adjustment in the halt condition after a jam>\n" +
	"• Procedure\n" +
	"On the Machine screen, select [Adjustment] - [PFU Air Assist Adjustment] to select the tray that needs the adjustment. Select [Manual]. By pressing [Start] on the displayed screen, the air starts blowing. Then, change each setting as needed. Press [Stop] or [Close] when the air level is proper.\n" +
	"• Adjustable items\n" +
	"   • Lead Edge Air Level Setting (Following the setting changes, the air level changes)\n" +
	"   • Side Air Level Setting (Following the configuration changes, the air level changes)\n\n" +
	"<When performing the air-blow adjustment without canceling the job after clearing the jam>\n" +
	"• Procedure\n" +
	"After you clear the jam, press 'Paper Setting' on the screen where 'Press [Start] to restart' is shown. Select the tray that needs the adjustment and select [Change Setting] - [Air-blow]. Change each setting as needed and press [OK].\n\n" +
	"Note\n" +
	"• Blow-out of the air cannot be checked.\n" +
	"• Adjustable items\n" +
	"   • Lead Edge Air Level Setting\n" +
	"   • Side Air Level Setting"

// registerAirBlow fixes SW 3-0 on the C7100 family. The extracted row loses
// most of its multi-paragraph description to cell splitting.
func registerAirBlow() {
	Register(dipsw.PatchRule{
		Name:          "c7100-air-blow",
		ModelContains: []string{"C7100", "C7090"},
		Remove:        []dipsw.Key{{Switch: 3, Bit: 0}},
		Replacements: []dipsw.Record{{
			SwitchNumber: 3,
			BitNumber:    0,
			FunctionName: dipsw.Text(airBlowDescription),
			Setting0:     dipsw.Text("Not display the air-blow adjustment button"),
			Setting1:     dipsw.Text("Display the air-blow adjustment button"),
			DefaultVal:   dipsw.Text("0"),
		}},
	})
}

const maintenanceCountDescription = "Number of the allowed print quantity after the machine reaches the maintenance count\n\n" +
	"Combination Table (Bit 1-7 | 1-6 | 1-5):\n" +
	"0 | 0 | 0  : 1,000 Prints\n" +
	"0 | 0 | 1  : 2,000 Prints\n" +
	"0 | 1 | 0  : 3,000 Prints\n" +
	"0 | 1 | 1  : 4,000 Prints\n" +
	"1 | 0 | 0  : 5,000 Prints\n" +
	"1 | 0 | 1  : 1,000 Prints\n" +
	"Note: See service manual for defaults."

const seeCombinationTable = "See Combination Table in Function Description"

// registerMaintenanceCount fixes SW 1-5..1-7 on the C6100 family, a
// three-bit combination table the extractor splits across pages.
func registerMaintenanceCount() {
	var replacements []dipsw.Record
	for bit := 5; bit <= 7; bit++ {
		replacements = append(replacements, dipsw.Record{
			SwitchNumber: 1,
			BitNumber:    bit,
			FunctionName: dipsw.Text(maintenanceCountDescription),
			Setting0:     dipsw.Text(seeCombinationTable),
			Setting1:     dipsw.Text(seeCombinationTable),
			DefaultVal:   dipsw.Text("0"),
		})
	}

	Register(dipsw.PatchRule{
		Name:          "c6100-maintenance-count",
		ModelContains: []string{"C6100", "C6080"},
		Remove: []dipsw.Key{
			{Switch: 1, Bit: 5},
			{Switch: 1, Bit: 6},
			{Switch: 1, Bit: 7},
		},
		Replacements: replacements,
	})
}
