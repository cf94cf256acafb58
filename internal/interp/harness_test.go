package interp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/qaz17899/funbot/internal/config"
)

const questLineFixture = `
/// Tutorial and villain quest lines.
class QuestLineHelper {
	public static createTutorialQuestLine() {
		const tutorial = new QuestLine('Tutorial Quests', 'A short set of quests to get you going.');

		const route2 = new DefeatPokemonsQuest(10, 0, 2, GameConstants.Region.kanto, 'Defeat 10 Pokemon on Route 2.');
		tutorial.addQuest(route2);

		const talkToMum = new TalkToNPCQuest(PalletMum, 'Talk to Mum in Pallet Town.');
		tutorial.addQuest(talkToMum);

		const catchPidgey = new CustomQuest(1, 20, 'Catch a Pidgey.', () => App.game.statistics.pokemonCaptured[16]())
			.withCustomReward(() => ItemList.Pokeball.gain(5));
		tutorial.addQuest(catchPidgey);

		App.game.quests.questLines().push(tutorial);
	}

	public static createRocketQuestLine() {
		const rocket = new QuestLine('Team Rocket', 'Clear the hideout.',
			new RouteKillRequirement(5, GameConstants.Region.kanto, 3), GameConstants.BulletinBoards.Kanto);
		rocket.addQuest(new DefeatDungeonQuest(1, 0, 'Rocket Game Corner').withDescription('Raid the hideout.'));
		App.game.quests.questLines().push(rocket);
	}
}
`

const npcFixture = `
const PalletMum = new NPC('Mum', ['You should go catch some Pokemon!']);
const OakNPC = new ProfNPC('Prof. Oak', ['Hello there!']);
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func questLineProfile(t *testing.T, dir string) *config.Profile {
	t.Helper()
	p := config.Default()
	p.Source = writeFixture(t, dir, "QuestLineHelper.ts", questLineFixture)
	p.Names = writeFixture(t, dir, "NPCList.ts", npcFixture)
	p.Output = filepath.Join(dir, "quest_lines_data.json")
	p.KnownRequirements = []string{"RouteKillRequirement"}
	p.KnownQuests = []string{
		"TalkToNPCQuest", "DefeatPokemonsQuest", "DefeatDungeonQuest", "CustomQuest",
	}
	return p
}

func TestRun_QuestLineExtraction(t *testing.T) {
	p := questLineProfile(t, t.TempDir())
	h := New(p, zap.NewNop())

	res, err := h.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.State() != StateValidated {
		t.Errorf("final state = %v", h.State())
	}
	if res.Failed != 0 {
		t.Fatalf("failed entry points: %+v", res.EntryPoints)
	}
	if len(res.Containers) != 2 {
		t.Fatalf("containers = %d", len(res.Containers))
	}

	tutorial := res.Containers[0]
	if tutorial.Name != "Tutorial Quests" || len(tutorial.Children) != 3 {
		t.Fatalf("tutorial = %+v", tutorial)
	}

	var docs []map[string]any
	if err := json.Unmarshal(res.Document, &docs); err != nil {
		t.Fatal(err)
	}
	children := docs[0]["children"].([]any)

	route := children[0].(map[string]any)
	if route["region"] != "kanto" || route["route"] != 2.0 || route["amount"] != 10.0 {
		t.Errorf("route quest doc = %v", route)
	}
	if route["inQuestLine"] != true {
		t.Error("container membership flag missing")
	}

	talk := children[1].(map[string]any)
	if talk["npc"] != "Mum" {
		t.Errorf("companion name binding = %v", talk["npc"])
	}

	custom := children[2].(map[string]any)
	if custom["hasCustomReward"] != true || custom["hasCompletionCheck"] != true {
		t.Errorf("callback presence flags = %v", custom)
	}

	rocket := docs[1]
	req := rocket["unlockRequirement"].(map[string]any)
	if req["type"] != "RouteKillRequirement" || req["kills"] != 5.0 || req["region"] != "kanto" || req["route"] != 3.0 {
		t.Errorf("unlock requirement = %v", req)
	}
	if _, present := req["comparisonMode"]; present {
		t.Error("default comparison must stay implicit")
	}
	flags := rocket["flags"].(map[string]any)
	if flags["bulletinBoard"] != "Kanto" {
		t.Errorf("bulletin board flag = %v", flags)
	}
	firstQuest := rocket["children"].([]any)[0].(map[string]any)
	if firstQuest["description"] != "Raid the hideout." {
		t.Errorf("builder description = %v", firstQuest)
	}

	written, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(written, res.Document) {
		t.Error("written file must match the in-memory document")
	}
}

func TestRun_RepeatedRunsAreByteIdentical(t *testing.T) {
	p := questLineProfile(t, t.TempDir())

	first, err := New(p, zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(p, zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Document, second.Document) {
		t.Error("re-running on unchanged inputs must produce a byte-identical document")
	}
}

func TestRun_EntryPointFailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	source := `
class QuestLineHelper {
	public static createFirst() {
		new QuestLine('First', 'Fine.');
	}

	public static createBroken() {
		new QuestLine('Broken', 'Built, then the entry point dies.');
		throw new Error('data not ready');
	}

	public static createThird() {
		new QuestLine('Third', 'Also fine.');
	}
}
`
	p := config.Default()
	p.Source = writeFixture(t, dir, "QuestLineHelper.ts", source)
	p.Output = filepath.Join(dir, "out.json")

	res, err := New(p, zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 {
		t.Fatalf("failed = %d", res.Failed)
	}
	if len(res.EntryPoints) != 3 || res.EntryPoints[1].Err == nil {
		t.Fatalf("entry results = %+v", res.EntryPoints)
	}
	if len(res.Containers) != 2 {
		t.Fatalf("containers = %d, the broken entry's container must be dropped", len(res.Containers))
	}
	if res.Containers[0].Name != "First" || res.Containers[1].Name != "Third" {
		t.Errorf("containers = %q, %q", res.Containers[0].Name, res.Containers[1].Name)
	}
}

func TestRun_TemporaryBattles(t *testing.T) {
	dir := t.TempDir()
	source := `
TemporaryBattleList['Blue 1'] = new TemporaryBattle(
	'Blue 1',
	[
		new GymPokemon('Pidgey', 1293, 7),
		new GymPokemon('Squirtle', 1763, 9),
	],
	'Smell ya later!',
	[new RouteKillRequirement(10, GameConstants.Region.kanto, 1)],
	{
		displayName: 'Pokemon Trainer Blue',
		returnTown: 'Viridian City',
		imageName: 'Blue',
	}
);
`
	p := config.Default()
	p.Domain = "battles"
	p.Source = writeFixture(t, dir, "TemporaryBattleList.ts", source)
	p.Output = filepath.Join(dir, "battles.json")
	p.ContainerTypes = []string{"TemporaryBattle"}
	p.KnownRequirements = []string{"RouteKillRequirement"}

	res, err := New(p, zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Containers) != 1 {
		t.Fatalf("containers = %d", len(res.Containers))
	}
	battle := res.Containers[0]
	if battle.Name != "Blue 1" || battle.Description != "Smell ya later!" {
		t.Errorf("battle = %+v", battle)
	}
	if battle.Requirement == nil || battle.Requirement.Type != "RouteKillRequirement" {
		t.Errorf("requirement = %+v", battle.Requirement)
	}
	if battle.Flags["displayName"] != "Pokemon Trainer Blue" {
		t.Errorf("flags = %v", battle.Flags)
	}

	var docs []map[string]any
	if err := json.Unmarshal(res.Document, &docs); err != nil {
		t.Fatal(err)
	}
	roster := docs[0]["children"].([]any)
	if len(roster) != 2 {
		t.Fatalf("roster = %v", roster)
	}
	lead := roster[0].(map[string]any)
	if lead["name"] != "Pidgey" || lead["health"] != 1293.0 || lead["level"] != 7.0 {
		t.Errorf("lead = %v", lead)
	}
}

func TestRun_ParseErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	p := config.Default()
	p.Source = writeFixture(t, dir, "Broken.ts", "class {{{ not valid")
	p.Output = filepath.Join(dir, "out.json")

	_, err := New(p, zap.NewNop()).Run(context.Background())
	if !errors.Is(err, ErrUnsupportedSyntax) {
		t.Errorf("want ErrUnsupportedSyntax, got %v", err)
	}
}

func TestRun_MissingSourceIsFatal(t *testing.T) {
	p := config.Default()
	p.Source = filepath.Join(t.TempDir(), "nowhere.ts")
	p.Output = filepath.Join(t.TempDir(), "out.json")

	if _, err := New(p, zap.NewNop()).Run(context.Background()); err == nil {
		t.Error("unreadable source must be fatal")
	}
}
