package settings

// 存储键，与浏览器端共享同一份数据
const (
	KeyActivation              = "activation"
	KeyBlacklist               = "blacklist"
	KeyDoNotTranslate          = "doNotTranslate"
	KeySourceLanguage          = "sourceLanguage"
	KeyTargetLanguage          = "targetLanguage"
	KeyNgramMin                = "ngramMin"
	KeyNgramMax                = "ngramMax"
	KeyTranslationProbability  = "translationProbability"
	KeyUserDefinedTranslations = "userDefinedTranslations"
	KeyUserDefinedOnly         = "userDefinedOnly"
	KeyUserBlacklistedWords    = "userBlacklistedWords"
	KeyLearntWords             = "learntWords"
	KeyDifficultyBuckets       = "difficultyBuckets"
	KeyTranslatorService       = "translatorService"
	KeyOneWordTranslation      = "oneWordTranslation"
	KeyTranslatedWordStyle     = "translatedWordStyle"
	KeySavedPatterns           = "savedPatterns"
	KeyCWAvailable             = "cwAvailable"
	KeyCWMap                   = "cwMap"
	KeyStats                   = "stats"
	KeyTranslatedWordsForQuiz  = "translatedWordsForQuiz"
	KeyNumberOfTranslatedWords = "numberOfTranslatedWords"
	KeySavedTranslations       = "savedTranslations"
	KeyUtterance               = "utterance"
)

// Defaults 是首次运行写入的初始值。
// savedPatterns 每项为 [源语言, 目标语言, 概率, 是否启用, 翻译服务, 已翻译词数]。
func Defaults() map[string]string {
	return map[string]string{
		KeyActivation:              "true",
		KeyBlacklist:               "()",
		KeyDoNotTranslate:          "false",
		KeySourceLanguage:          "en",
		KeyTargetLanguage:          "fr",
		KeyNgramMin:                "1",
		KeyNgramMax:                "1",
		KeyTranslationProbability:  "15",
		KeyUserDefinedTranslations: "{}",
		KeyUserDefinedOnly:         "false",
		KeyUserBlacklistedWords:    "()",
		KeyLearntWords:             "()",
		KeyDifficultyBuckets:       "{}",
		KeyTranslatorService:       "Free",
		KeyOneWordTranslation:      "false",
		KeyTranslatedWordStyle:     "",
		KeySavedPatterns:           `[["en","fr","15",true,"Free",0]]`,
		KeyCWAvailable:             "false",
		KeyCWMap:                   "{}",
		KeyStats:                   "",
		KeyTranslatedWordsForQuiz:  "{}",
		KeyNumberOfTranslatedWords: "0",
		KeySavedTranslations:       "{}",
		KeyUtterance:               "",
	}
}
