package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed games.sql
var gamesSQL string

//go:embed mods.sql
var modsSQL string

//go:embed tags.sql
var tagsSQL string

//go:embed dependencies.sql
var dependenciesSQL string

//go:embed incompatibilities.sql
var incompatibilitiesSQL string

//go:embed prompts.sql
var promptsSQL string

//go:embed recommendations.sql
var recommendationsSQL string

// Function lists for verification
var GamesFunctions = []string{
	"init_games",
	"insert_game",
	"select_game",
	"select_all_games",
	"delete_game",
}

var ModsFunctions = []string{
	"init_mods",
	"insert_mod",
	"select_mod",
	"select_mods_by_game",
	"select_mods_by_ids",
	"select_mods_by_similarity",
	"select_mods_by_tag_names",
	"update_mod_embedding",
	"delete_mod",
}

var TagsFunctions = []string{
	"init_tags",
	"insert_tag",
	"select_tag",
	"select_tag_by_name",
	"select_all_tags",
	"insert_mod_tag",
	"delete_mod_tag",
	"delete_tag",
}

var DependenciesFunctions = []string{
	"init_dependencies",
	"insert_dependency",
	"select_dependencies_from_mod",
	"select_dependencies_to_mod",
	"delete_dependency",
}

var IncompatibilitiesFunctions = []string{
	"init_incompatibilities",
	"insert_incompatibility",
	"select_incompatibilities_of_mod",
	"delete_incompatibility",
}

var PromptsFunctions = []string{
	"init_prompts",
	"insert_prompt",
	"select_prompt",
	"select_recent_prompts",
	"delete_prompt",
}

var RecommendationsFunctions = []string{
	"init_recommendations",
	"insert_recommendation",
	"select_recommendation",
	"select_recommendations_by_prompt",
}

// Init intializes db extensions and shared trigger functions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadGamesSql loads game-related SQL functions
func LoadGamesSql(db *sql.DB, force bool) error {
	return loadSql(db, "games", gamesSQL, GamesFunctions, force)
}

// LoadModsSql loads mod-related SQL functions
func LoadModsSql(db *sql.DB, force bool) error {
	return loadSql(db, "mods", modsSQL, ModsFunctions, force)
}

// LoadTagsSql loads tag and mod_tag SQL functions
func LoadTagsSql(db *sql.DB, force bool) error {
	return loadSql(db, "tags", tagsSQL, TagsFunctions, force)
}

// LoadDependenciesSql loads dependency-related SQL functions
func LoadDependenciesSql(db *sql.DB, force bool) error {
	return loadSql(db, "dependencies", dependenciesSQL, DependenciesFunctions, force)
}

// LoadIncompatibilitiesSql loads incompatibility-related SQL functions
func LoadIncompatibilitiesSql(db *sql.DB, force bool) error {
	return loadSql(db, "incompatibilities", incompatibilitiesSQL, IncompatibilitiesFunctions, force)
}

// LoadPromptsSql loads prompt-related SQL functions
func LoadPromptsSql(db *sql.DB, force bool) error {
	return loadSql(db, "prompts", promptsSQL, PromptsFunctions, force)
}

// LoadRecommendationsSql loads recommendation-related SQL functions
func LoadRecommendationsSql(db *sql.DB, force bool) error {
	return loadSql(db, "recommendations", recommendationsSQL, RecommendationsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	loaders := []func(*sql.DB, bool) error{
		LoadGamesSql,
		LoadModsSql,
		LoadTagsSql,
		LoadDependenciesSql,
		LoadIncompatibilitiesSql,
		LoadPromptsSql,
		LoadRecommendationsSql,
	}
	for _, load := range loaders {
		if err := load(db, force); err != nil {
			return err
		}
	}
	return nil
}

// loadSql executes the given SQL file unless all of its functions exist already.
// With force the file is always executed.
func loadSql(db *sql.DB, name string, content string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(content)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
