package Models

type Stats struct {
	Doctors       int64            `json:"doctors,omitempty"`
	ActiveDoctors int64            `json:"active_doctors,omitempty"`
	Patients      int64            `json:"patients"`
	Cephalograms  int64            `json:"cephalograms"`
	ByStatus      map[string]int64 `json:"by_status"`
}

func GetStats(scope Scope) (Stats, error) {
	stats := Stats{ByStatus: map[string]int64{}}
	if scope.Admin {
		if err := DB.Model(&Doctor{}).Count(&stats.Doctors).Error; err != nil {
			return stats, err
		}
		if err := DB.Model(&Doctor{}).Where("is_active = ?", true).Count(&stats.ActiveDoctors).Error; err != nil {
			return stats, err
		}
	}
	if err := scope.DB(DB.Model(&Patient{}), "").Count(&stats.Patients).Error; err != nil {
		return stats, err
	}

	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := scope.DB(DB.Model(&Cephalogram{}), "").Select("status, count(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return stats, err
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
		stats.Cephalograms += r.Count
	}
	return stats, nil
}
