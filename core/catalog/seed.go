package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/modmuse/helper"
	"github.com/siherrmann/modmuse/model"
)

// SeedMod describes a mod by the name of its game and the names of its tags.
type SeedMod struct {
	Game        string
	Name        string
	Description string
	SourceURL   string
	Version     string
	Tags        []string
}

// SeedRelation references two seeded mods by name.
type SeedRelation struct {
	Mod   string
	Other string
}

// SeedData is a catalog expressed by names, mod names are unique across games.
type SeedData struct {
	Games             []model.Game
	Tags              []string
	Mods              []SeedMod
	Dependencies      []SeedRelation
	Incompatibilities []SeedRelation
}

// SeedResult counts what a seed run wrote.
type SeedResult struct {
	Games             int
	Tags              int
	Mods              int
	Dependencies      int
	Incompatibilities int
}

// DefaultSeedData returns the starter catalog for Skyrim, Minecraft and Fallout 4.
func DefaultSeedData() *SeedData {
	return &SeedData{
		Games: []model.Game{
			{Name: "Skyrim", Genre: ptr("RPG"), Engine: ptr("Creation Engine"), Platform: ptr("PC")},
			{Name: "Minecraft", Genre: ptr("Sandbox"), Engine: ptr("Custom"), Platform: ptr("Java")},
			{Name: "Fallout 4", Genre: ptr("RPG"), Engine: ptr("Creation Engine"), Platform: ptr("PC")},
		},
		Tags: []string{"survival", "immersion", "magic", "overhaul", "UI", "graphics", "performance", "exploration"},
		Mods: []SeedMod{
			{"Skyrim", "Frostfall", "Hypothermia survival mechanics", "https://www.nexusmods.com/skyrim/mods/11163", "3.4.1", []string{"survival", "immersion"}},
			{"Skyrim", "Campfire", "Camping system and resource management", "https://www.nexusmods.com/skyrim/mods/64798", "1.12", []string{"survival"}},
			{"Skyrim", "iNeed", "Adds hunger, thirst, and sleep requirements", "https://www.nexusmods.com/skyrim/mods/51473", "2.0", []string{"survival"}},
			{"Skyrim", "Ordinator", "Overhauls the perk system", "https://www.nexusmods.com/skyrim/mods/68425", "9.30", []string{"magic"}},
			{"Skyrim", "Wet and Cold", "Weather-based immersion effects", "https://www.nexusmods.com/skyrim/mods/27563", "2.2", []string{"immersion"}},
			{"Skyrim", "RASS", "Breath, snow, wetness, and immersion visuals", "https://www.nexusmods.com/skyrim/mods/103486", "1.0", []string{"immersion"}},
			{"Skyrim", "SkyUI", "Modernized UI with MCM menu", "https://www.nexusmods.com/skyrim/mods/3863", "5.2", []string{"UI"}},
			{"Skyrim", "Hunterborn", "Overhauls hunting, skinning, gathering", "https://www.nexusmods.com/skyrim/mods/33201", "1.6", []string{"survival", "exploration"}},
			{"Minecraft", "OptiFine", "Performance + graphics enhancements", "https://optifine.net/", "HD U G9", []string{"performance", "graphics"}},
			{"Minecraft", "JEI", "Recipe browser and item lookup", "https://www.curseforge.com/minecraft/mc-mods/jei", "12.0.0", []string{"UI"}},
			{"Minecraft", "Biomes O’ Plenty", "Adds 80+ new biomes", "https://www.curseforge.com/minecraft/mc-mods/biomes-o-plenty", "17.0.1", []string{"exploration"}},
			{"Fallout 4", "Sim Settlements", "Dynamic settlement overhaul", "https://www.nexusmods.com/fallout4/mods/21872", "4.2.9", []string{"overhaul"}},
			{"Fallout 4", "Armorsmith Extended", "Craft and customize armor fully", "https://www.nexusmods.com/fallout4/mods/2228", "4.6", []string{"overhaul"}},
			{"Fallout 4", "Vivid Fallout", "Texture + graphics overhaul", "https://www.nexusmods.com/fallout4/mods/25714", "2.2", []string{"graphics"}},
		},
		Dependencies:      []SeedRelation{{Mod: "Frostfall", Other: "Campfire"}},
		Incompatibilities: []SeedRelation{{Mod: "iNeed", Other: "Ordinator"}},
	}
}

// Seed writes data into the catalog. Every write is an upsert, so seeding twice
// leaves the catalog unchanged and keeps computed embeddings.
func (c *Catalog) Seed(ctx context.Context, data *SeedData) (*SeedResult, error) {
	result := &SeedResult{}

	gameIDs := map[string]int64{}
	for _, g := range data.Games {
		game := g
		err := c.games.InsertGame(ctx, &game)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("insert game %s", game.Name), err)
		}
		gameIDs[game.Name] = game.ID
		result.Games++
	}

	tagIDs := map[string]int64{}
	insertTag := func(name string) (int64, error) {
		if id, ok := tagIDs[name]; ok {
			return id, nil
		}
		tag := &model.Tag{Name: name}
		err := c.tags.InsertTag(ctx, tag)
		if err != nil {
			return 0, helper.NewError(fmt.Sprintf("insert tag %s", name), err)
		}
		tagIDs[name] = tag.ID
		result.Tags++
		return tag.ID, nil
	}
	for _, name := range data.Tags {
		_, err := insertTag(name)
		if err != nil {
			return nil, err
		}
	}

	modIDs := map[string]int64{}
	for _, m := range data.Mods {
		gameID, ok := gameIDs[m.Game]
		if !ok {
			return nil, helper.NewError(fmt.Sprintf("seed mod %s", m.Name), fmt.Errorf("unknown game %q", m.Game))
		}

		mod := &model.Mod{
			GameID:      gameID,
			Name:        m.Name,
			Description: optional(m.Description),
			SourceURL:   optional(m.SourceURL),
			Version:     optional(m.Version),
		}
		err := c.mods.InsertMod(ctx, mod)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("insert mod %s", m.Name), err)
		}
		modIDs[m.Name] = mod.ID
		result.Mods++

		for _, tagName := range m.Tags {
			tagID, err := insertTag(tagName)
			if err != nil {
				return nil, err
			}
			err = c.tags.InsertModTag(ctx, mod.ID, tagID)
			if err != nil {
				return nil, helper.NewError(fmt.Sprintf("link mod %s to tag %s", m.Name, tagName), err)
			}
		}
	}

	resolve := func(relation SeedRelation) (int64, int64, error) {
		a, ok := modIDs[relation.Mod]
		if !ok {
			return 0, 0, fmt.Errorf("unknown mod %q", relation.Mod)
		}
		b, ok := modIDs[relation.Other]
		if !ok {
			return 0, 0, fmt.Errorf("unknown mod %q", relation.Other)
		}
		return a, b, nil
	}

	for _, relation := range data.Dependencies {
		modID, dependsOnModID, err := resolve(relation)
		if err != nil {
			return nil, helper.NewError("seed dependency", err)
		}
		_, err = c.AddDependency(ctx, modID, dependsOnModID)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("seed dependency %s -> %s", relation.Mod, relation.Other), err)
		}
		result.Dependencies++
	}

	for _, relation := range data.Incompatibilities {
		modIDA, modIDB, err := resolve(relation)
		if err != nil {
			return nil, helper.NewError("seed incompatibility", err)
		}
		_, err = c.AddIncompatibility(ctx, modIDA, modIDB)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("seed incompatibility %s x %s", relation.Mod, relation.Other), err)
		}
		result.Incompatibilities++
	}

	c.logger.Info(
		"Seeded catalog",
		slog.Int("games", result.Games),
		slog.Int("tags", result.Tags),
		slog.Int("mods", result.Mods),
		slog.Int("dependencies", result.Dependencies),
		slog.Int("incompatibilities", result.Incompatibilities),
	)

	return result, nil
}

func ptr(s string) *string {
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
