package main

import (
	"coursepilot/config"
	"coursepilot/database"
	"coursepilot/models"
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"strings"
)

func main() {
	// Load config and connect to database
	config.LoadConfig()
	database.ConnectDb()

	// Open CSV file
	file, err := os.Open("Roster.csv")
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	// Create CSV reader
	reader := csv.NewReader(file)

	// Read all records
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	// Skip header row
	header := records[0]
	log.Printf("CSV Headers: %v", header)
	log.Printf("Total rows to import: %d", len(records)-1)

	// Map header indices
	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.TrimSpace(h)] = i
	}

	inserted := 0
	updated := 0
	skipped := 0

	departments := make(map[string]uint)
	teams := make(map[string]uint)

	for i, row := range records[1:] {
		if i%1000 == 0 {
			log.Printf("Processing row %d...", i+1)
		}

		orgID := uint(parseInt(getField(row, headerIndex, "orgId")))
		email := getField(row, headerIndex, "email")

		// Skip if no email or organization
		if email == "" || orgID == 0 {
			skipped++
			continue
		}

		member := models.Member{
			OrgID:  orgID,
			Name:   getField(row, headerIndex, "name"),
			Email:  email,
			Role:   getField(row, headerIndex, "role"),
			Status: models.MemberStatusActive,
		}

		if deptName := getField(row, headerIndex, "department"); deptName != "" {
			id := ensureDepartment(departments, orgID, deptName)
			member.DepartmentID = &id
		}
		if teamName := getField(row, headerIndex, "team"); teamName != "" {
			id := ensureTeam(teams, orgID, teamName)
			member.TeamID = &id
		}

		// Check if member exists by email within the organization
		var existing models.Member
		result := database.Database.Db.Where("org_id = ? AND email = ?", orgID, email).First(&existing)

		if result.Error != nil {
			// Insert new member
			if err := database.Database.Db.Create(&member).Error; err != nil {
				log.Printf("Error inserting member %s: %v", member.Email, err)
				continue
			}
			inserted++
		} else {
			// Update existing member
			existing.Name = member.Name
			existing.Role = member.Role
			existing.DepartmentID = member.DepartmentID
			existing.TeamID = member.TeamID
			existing.Status = models.MemberStatusActive
			existing.IsDeleted = false

			if err := database.Database.Db.Save(&existing).Error; err != nil {
				log.Printf("Error updating member %s: %v", member.Email, err)
				continue
			}
			updated++
		}
	}

	log.Printf("=== Import Complete ===")
	log.Printf("Inserted: %d", inserted)
	log.Printf("Updated: %d", updated)
	log.Printf("Skipped: %d", skipped)
	log.Printf("Total processed: %d", inserted+updated+skipped)
}

// ensureDepartment finds or creates a department by name and caches the ID
func ensureDepartment(cache map[string]uint, orgID uint, name string) uint {
	key := strconv.Itoa(int(orgID)) + "/" + name
	if id, ok := cache[key]; ok {
		return id
	}

	var dept models.Department
	result := database.Database.Db.Where("org_id = ? AND name = ?", orgID, name).First(&dept)
	if result.Error != nil {
		dept = models.Department{OrgID: orgID, Name: name}
		if err := database.Database.Db.Create(&dept).Error; err != nil {
			log.Printf("Error creating department %s: %v", name, err)
			return 0
		}
	}
	cache[key] = dept.ID
	return dept.ID
}

// ensureTeam finds or creates a team by name and caches the ID
func ensureTeam(cache map[string]uint, orgID uint, name string) uint {
	key := strconv.Itoa(int(orgID)) + "/" + name
	if id, ok := cache[key]; ok {
		return id
	}

	var team models.Team
	result := database.Database.Db.Where("org_id = ? AND name = ?", orgID, name).First(&team)
	if result.Error != nil {
		team = models.Team{OrgID: orgID, Name: name}
		if err := database.Database.Db.Create(&team).Error; err != nil {
			log.Printf("Error creating team %s: %v", name, err)
			return 0
		}
	}
	cache[key] = team.ID
	return team.ID
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// parseInt converts string to int
func parseInt(s string) int {
	if s == "" {
		return 0
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return val
}
