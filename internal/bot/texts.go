package bot

// User-facing texts. The bot speaks Ukrainian; keep all student and admin
// strings here so the handlers stay readable.
const (
	textAskName       = "Вітаю! Я бот для підготовки до уроків. Напишіть своє ім'я в чаті або натисніть кнопку, щоб використати ім'я з Telegram."
	textNameEmpty     = "Будь ласка, напишіть ваше ім'я текстом."
	textWelcome       = "Приємно познайомитися, %s! Оберіть дію в меню."
	textMainMenu      = "Головне меню"
	textChooseProgram = "Оберіть навчальну програму:"
	textChooseClass   = "Оберіть клас:"
	textChooseTopic   = "Оберіть тему:"
	textNoTopics      = "Для цього класу поки що немає тем."
	textNoLessons     = "У цій темі поки що немає уроків."
	textLessonNoTest  = "До цього уроку ще немає тесту."

	textQuizListHeader  = "Доступні контрольні роботи:"
	textNoQuizzes       = "Зараз немає доступних контрольних робіт. Складіть усі тести до уроків теми, щоб відкрити її контрольну."
	textQuizLocked      = "Контрольна робота ще закрита. Спочатку складіть тести до всіх уроків цієї теми."
	textQuizAttempted   = "Ви вже проходили цю контрольну роботу. Повторна спроба не передбачена."
	textQuizUnavailable = "Для цієї теми немає контрольної роботи."

	textTestPassed      = "✅ Тест складено! Ваш результат: %d%% (%d з %d правильних)."
	textTestFailed      = "❌ Тест не складено. Ваш результат: %d%%, прохідний бал — %d%%. Спробуйте ще раз!"
	textQuizPassed      = "🎉 Контрольну роботу складено! Ваш результат: %d%% (%d з %d правильних)."
	textQuizFailed      = "❌ Контрольну роботу не складено. Ваш результат: %d%%, прохідний бал — %d%%."
	textQuizUnlocked    = "🔓 Вітаємо! Контрольна робота з теми «%s» тепер доступна. Скористайтеся командою /quizzes."
	textQuestion        = "Питання %d з %d\n\n%s"
	textCancelled       = "Проходження скасовано. Результат не зараховано."
	textFlowCancelled   = "Дію скасовано."
	textNothingToCancel = "Зараз немає активної дії, яку можна скасувати."
	textNoAssessment    = "Зараз немає активного тесту. Оберіть урок, щоб почати."
	textUseButtons      = "Скористайтеся кнопками під питанням."
	textAssessError     = "Сталася помилка під час завантаження питання. Надішліть відповідь ще раз."
	textEmptySubject    = "У цьому тесті поки що немає питань."

	textSupportAsk     = "Напишіть ваше повідомлення — ми передамо його вчителю."
	textSupportSent    = "Дякуємо! Ваше повідомлення передано."
	textSupportFrom    = "Повідомлення від %s (@%s):"
	textUnknownCommand = "Невідома команда. Скористайтеся меню або командою /start."

	textAdminOnly        = "Ця команда доступна лише адміністраторам."
	textAdminMenu        = "Панель адміністратора"
	textAdminTopicTitle  = "Введіть назву нової теми:"
	textAdminTopicDesc   = "Введіть опис теми:"
	textAdminTopicClass  = "Для якого класу ця тема? Введіть число."
	textAdminClassBad    = "Введіть номер класу числом, наприклад 7."
	textAdminTopicDone   = "Тему «%s» створено."
	textAdminTopicGone   = "Тему видалено. Результати учнів збережено."
	textAdminLessonTitle = "Введіть назву нового уроку:"
	textAdminLessonDesc  = "Введіть опис уроку:"
	textAdminLessonDone  = "Урок «%s» створено."
	textAdminLessonGone  = "Урок видалено. Результати учнів збережено."
	textAdminPickTopic   = "Оберіть тему:"
	textAdminPickLesson  = "Оберіть урок:"
	textAdminUploadTest  = "Надішліть файл із питаннями тесту (JSON, YAML або XLSX)."
	textAdminUploadQuiz  = "Надішліть файл із питаннями контрольної роботи (JSON, YAML або XLSX)."
	textAdminUploadMat   = "Надішліть файли матеріалів до уроку. Коли закінчите — /done."
	textAdminNeedFile    = "Потрібен файл. Надішліть документ."
	textAdminBadFile     = "Не вдалося розібрати файл: %v"
	textAdminTestSaved   = "Збережено %d питань."
	textAdminMatSaved    = "Матеріал збережено. Надішліть ще або завершіть командою /done."
	textAdminMatDone     = "Завантаження матеріалів завершено."
	textAdminNothingExp  = "Для цього предмета немає питань."

	textError = "Сталася технічна помилка. Спробуйте пізніше."

	textFAQ = `📚 Часті запитання

❓ Як працює навчання?
— Оберіть клас і тему, вивчайте уроки.
— Після кожного уроку складайте тест.
— Склавши всі тести теми, відкриєте її контрольну роботу.

❓ Які прохідні бали?
— Тести до уроків: мінімум %d%%.
— Контрольні роботи: мінімум %d%%. Контрольну можна пройти лише один раз.

❓ Виникла проблема?
— Напишіть нам через /support, і ми відповімо якнайшвидше.`
)

const (
	btnStudy     = "📚 Навчання"
	btnQuizzes   = "📝 Контрольні роботи"
	btnSupport   = "💬 Підтримка"
	btnHelp      = "🙋 Допомога"
	btnUseTgName = "Використати ім'я з Telegram"
	btnTakeTest  = "✍️ Пройти тест"
	btnQuiz      = "📝 Контрольна робота"
	btnBack      = "⬅️ Назад"
	btnCancel    = "✖️ Скасувати"

	btnAdmAddTopic   = "➕ Додати тему"
	btnAdmDelTopic   = "🗑 Видалити тему"
	btnAdmAddLesson  = "➕ Додати урок"
	btnAdmDelLesson  = "🗑 Видалити урок"
	btnAdmUploadTest = "📤 Завантажити тест"
	btnAdmUploadQuiz = "📤 Завантажити контрольну"
	btnAdmUploadMat  = "📎 Матеріали уроку"
	btnAdmExportTest = "📥 Експорт тесту"
	btnAdmExportQuiz = "📥 Експорт контрольної"
)
